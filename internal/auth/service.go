package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Udit-exe/kriya-backend/internal/identity"
	"github.com/Udit-exe/kriya-backend/internal/token"
)

var (
	// ErrUserNotFound means a token's subject no longer resolves to a user.
	ErrUserNotFound = errors.New("token subject not found")
	// ErrRevoked means the token's embedded version no longer matches the
	// user's current token version. A revoked token never becomes valid again.
	ErrRevoked = errors.New("token revoked")
)

// Service issues, validates and revokes authentication tokens. Issuance and
// validation are pure apart from the single user-store round trip; revocation
// is one atomic store update.
type Service struct {
	codec    *token.Codec
	users    identity.Repository
	lifetime time.Duration
	now      func() time.Time
}

// NewService builds the token service. Pass nil for time.Now.
func NewService(codec *token.Codec, users identity.Repository, lifetime time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{codec: codec, users: users, lifetime: lifetime, now: now}
}

// Issue signs a token asserting the user's identity and current token
// version. A token issued after a logout carries the bumped version, so that
// logout does not invalidate it.
func (s *Service) Issue(user identity.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.lifetime)
	signed, err := s.codec.Encode(token.Claims{
		Phone:        user.PhoneNumber,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks a token end to end: codec verification, subject lookup,
// and exact token-version equality. Every gate is hard; the first failure
// wins and nothing is mutated. Store failures other than not-found propagate
// unchanged so callers can treat them as retryable.
func (s *Service) Validate(ctx context.Context, tokenString string) (identity.User, *token.Claims, error) {
	claims, err := s.codec.DecodeAndVerify(tokenString)
	if err != nil {
		return identity.User{}, nil, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, nil, ErrUserNotFound
	}
	if err != nil {
		return identity.User{}, nil, fmt.Errorf("look up token subject: %w", err)
	}

	if claims.TokenVersion != user.TokenVersion {
		return identity.User{}, nil, ErrRevoked
	}

	return user, claims, nil
}

// Revoke advances the user's token version, stranding every token issued
// before the call. Returns the new version.
func (s *Service) Revoke(ctx context.Context, userID string) (int64, error) {
	version, err := s.users.IncrementTokenVersion(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}
	return version, nil
}

// IsTokenError reports whether err is a token-level rejection, as opposed to
// a store failure. Handlers collapse all of these into one generic response
// so callers cannot probe which clause failed; logs keep the distinction.
func IsTokenError(err error) bool {
	switch {
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrBadSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrAlgorithmMismatch),
		errors.Is(err, token.ErrIssuerMismatch),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRevoked):
		return true
	}
	return false
}
