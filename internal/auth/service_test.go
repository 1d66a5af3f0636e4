package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Udit-exe/kriya-backend/internal/identity"
	"github.com/Udit-exe/kriya-backend/internal/token"
)

var testSecret = []byte("unit-test-secret-key-0123456789abcdef")

func newTestService(t *testing.T, repo identity.Repository, now func() time.Time) *Service {
	t.Helper()
	codec, err := token.NewCodec(testSecret, "HS256", "kriya-backend", now)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return NewService(codec, repo, 24*time.Hour, now)
}

func registerUser(t *testing.T, repo identity.Repository, phone string) identity.User {
	t.Helper()
	user, _, err := identity.NewService(repo).RegisterOrLogin(context.Background(), identity.Registration{
		PhoneNumber: phone,
		FirstName:   "Asha",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return user
}

func TestIssueThenValidate(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)
	user := registerUser(t, repo, "+15550001111")

	signed, expiresAt, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 23*time.Hour || remaining > 24*time.Hour {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	got, claims, err := svc.Validate(context.Background(), signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("user mismatch: got %s want %s", got.ID, user.ID)
	}
	if claims.Phone != user.PhoneNumber {
		t.Fatalf("phone mismatch: got %s want %s", claims.Phone, user.PhoneNumber)
	}
	if claims.Subject != user.ID {
		t.Fatalf("subject mismatch: got %s want %s", claims.Subject, user.ID)
	}
}

func TestRevokeInvalidatesEarlierTokensPermanently(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)
	user := registerUser(t, repo, "+15550001111")
	ctx := context.Background()

	signed, _, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	version, err := svc.Revoke(ctx, user.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	// Deterministic and permanent: both validations hit the same gate.
	for i := 0; i < 2; i++ {
		if _, _, err := svc.Validate(ctx, signed); !errors.Is(err, ErrRevoked) {
			t.Fatalf("validation %d: expected ErrRevoked, got %v", i, err)
		}
	}
}

func TestIssueAfterRevokeValidates(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)
	user := registerUser(t, repo, "+15550001111")
	ctx := context.Background()

	if _, err := svc.Revoke(ctx, user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Re-issuance reads the post-revoke counter.
	fresh, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	signed, _, err := svc.Issue(fresh)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := svc.Validate(ctx, signed); err != nil {
		t.Fatalf("validate fresh token: %v", err)
	}
}

func TestValidateTamperedSignature(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)
	user := registerUser(t, repo, "+15550001111")

	signed, _, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	idx := strings.LastIndex(signed, ".")
	sig := []byte(signed[idx+1:])
	pos := len(sig) / 2
	if sig[pos] == 'A' {
		sig[pos] = 'B'
	} else {
		sig[pos] = 'A'
	}
	tampered := signed[:idx+1] + string(sig)

	if _, _, err := svc.Validate(context.Background(), tampered); !errors.Is(err, token.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := registerUser(t, repo, "+15550001111")

	issuedAt := time.Now()
	issuer := newTestService(t, repo, func() time.Time { return issuedAt })
	signed, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Same secret, clock 25h later: signature and counter are fine,
	// expiry alone must reject.
	validator := newTestService(t, repo, func() time.Time { return issuedAt.Add(25 * time.Hour) })
	if _, _, err := validator.Validate(context.Background(), signed); !errors.Is(err, token.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)

	// Token for a user that was never persisted.
	ghost := identity.User{ID: "3f0a0d5e-0000-4000-8000-000000000000", PhoneNumber: "+15550002222"}
	signed, _, err := svc.Issue(ghost)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := svc.Validate(context.Background(), signed); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRevokeUnknownUser(t *testing.T) {
	svc := newTestService(t, identity.NewMemoryRepository(), nil)

	if _, err := svc.Revoke(context.Background(), "no-such-user"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConcurrentRevokesNeverLoseAnIncrement(t *testing.T) {
	repo := identity.NewMemoryRepository()
	svc := newTestService(t, repo, nil)
	user := registerUser(t, repo, "+15550001111")
	ctx := context.Background()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Revoke(ctx, user.ID)
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("revoke: %v", err)
		}
	}

	version, err := repo.TokenVersion(ctx, user.ID)
	if err != nil {
		t.Fatalf("token version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2 after two revokes, got %d", version)
	}
}

func TestRegisterValidateRevokeScenario(t *testing.T) {
	repo := identity.NewMemoryRepository()
	ids := identity.NewService(repo)
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	user, created, err := ids.RegisterOrLogin(ctx, identity.Registration{PhoneNumber: "+1555000111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh registration")
	}

	tokenA, expiresAt, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue A: %v", err)
	}
	if time.Until(expiresAt) < 23*time.Hour {
		t.Fatalf("expected ~24h expiry, got %v", expiresAt)
	}

	got, _, err := svc.Validate(ctx, tokenA)
	if err != nil {
		t.Fatalf("validate A: %v", err)
	}
	if got.PhoneNumber != "+1555000111" {
		t.Fatalf("phone mismatch: %q", got.PhoneNumber)
	}

	version, err := svc.Revoke(ctx, user.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	if _, _, err := svc.Validate(ctx, tokenA); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked for token A, got %v", err)
	}

	relogged, created, err := ids.RegisterOrLogin(ctx, identity.Registration{PhoneNumber: "+1555000111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if created {
		t.Fatalf("expected login, not registration")
	}
	tokenB, _, err := svc.Issue(relogged)
	if err != nil {
		t.Fatalf("issue B: %v", err)
	}
	if _, _, err := svc.Validate(ctx, tokenB); err != nil {
		t.Fatalf("validate B: %v", err)
	}
}
