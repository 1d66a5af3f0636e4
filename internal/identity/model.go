package identity

import "time"

// User represents a phone-identified account.
type User struct {
	ID          string
	PhoneNumber string
	FirstName   string
	LastName    string
	Email       string
	// TokenVersion is the revocation counter. Tokens embed the value they
	// were issued under; a logout bumps it and strands every earlier token.
	TokenVersion int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Registration is the profile payload for register-or-login.
type Registration struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	Email       string
}
