package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMissingName is returned when a registration carries no usable name.
var ErrMissingName = errors.New("first name is required")

// Service manages identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterOrLogin creates a user for an unseen phone number, or refreshes the
// profile of an existing one. The returned bool is true when a new account
// was created. Phone numbers are canonicalized first, so re-registering the
// same number with different formatting resolves to the same account.
func (s *Service) RegisterOrLogin(ctx context.Context, reg Registration) (User, bool, error) {
	phone, err := CanonicalPhone(reg.PhoneNumber)
	if err != nil {
		return User{}, false, err
	}
	if strings.TrimSpace(reg.FirstName) == "" {
		return User{}, false, ErrMissingName
	}
	reg.PhoneNumber = phone

	existing, err := s.repo.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		updated, err := s.repo.UpdateProfile(ctx, existing.ID, reg)
		if err != nil {
			return User{}, false, err
		}
		return updated, false, nil
	case errors.Is(err, ErrNotFound):
	default:
		return User{}, false, err
	}

	now := time.Now().UTC()
	user := User{
		ID:          uuid.New().String(),
		PhoneNumber: phone,
		FirstName:   strings.TrimSpace(reg.FirstName),
		LastName:    strings.TrimSpace(reg.LastName),
		Email:       strings.TrimSpace(reg.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrPhoneTaken) {
			// Lost a race with a concurrent registration of the same number.
			if winner, ferr := s.repo.FindByPhone(ctx, phone); ferr == nil {
				return winner, false, nil
			}
		}
		return User{}, false, err
	}
	return user, true, nil
}

// Onboard splits a single display name into first/last and registers the
// user if the phone number is new. Existing users are returned untouched.
func (s *Service) Onboard(ctx context.Context, name, phoneNumber string) (User, bool, error) {
	phone, err := CanonicalPhone(phoneNumber)
	if err != nil {
		return User{}, false, err
	}

	existing, err := s.repo.FindByPhone(ctx, phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}

	first, last := splitName(name)
	if first == "" {
		return User{}, false, ErrMissingName
	}
	return s.RegisterOrLogin(ctx, Registration{PhoneNumber: phone, FirstName: first, LastName: last})
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
