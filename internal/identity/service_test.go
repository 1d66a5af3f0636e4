package identity

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterOrLoginCreatesThenUpdates(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, created, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: "+1555000111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true for new phone")
	}
	if user.TokenVersion != 0 {
		t.Fatalf("expected token version 0, got %d", user.TokenVersion)
	}

	again, created, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: "+1555000111", FirstName: "Asha", LastName: "Rao", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing phone")
	}
	if again.ID != user.ID {
		t.Fatalf("expected same user, got %s and %s", user.ID, again.ID)
	}
	if again.LastName != "Rao" || again.Email != "asha@example.com" {
		t.Fatalf("profile not updated: %+v", again)
	}
}

func TestRegisterOrLoginCanonicalizesPhone(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, _, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: "+1 (555) 000-1111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PhoneNumber != "+15550001111" {
		t.Fatalf("expected canonical phone, got %q", user.PhoneNumber)
	}

	same, created, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: "+1-555-000-1111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if created || same.ID != user.ID {
		t.Fatalf("differently formatted number matched a different account")
	}
}

func TestRegisterOrLoginRejectsBadPhone(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	for _, phone := range []string{"", "5550001111", "+1555", "+1555000111122334455", "+1555abc0111"} {
		_, _, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: phone, FirstName: "Asha"})
		if !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("phone %q: expected ErrInvalidPhone, got %v", phone, err)
		}
	}
}

func TestOnboardSplitsName(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, created, err := svc.Onboard(ctx, "Asha Devi Rao", "+15550001111")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}
	if user.FirstName != "Asha" || user.LastName != "Devi Rao" {
		t.Fatalf("unexpected name split: %q %q", user.FirstName, user.LastName)
	}

	same, created, err := svc.Onboard(ctx, "Someone Else", "+15550001111")
	if err != nil {
		t.Fatalf("second onboard: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing phone")
	}
	if same.ID != user.ID || same.FirstName != "Asha" {
		t.Fatalf("existing user should be returned untouched: %+v", same)
	}
}

func TestIncrementTokenVersionIsAtomic(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, _, err := svc.RegisterOrLogin(ctx, Registration{PhoneNumber: "+15550001111", FirstName: "Asha"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	const workers = 16
	done := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := repo.IncrementTokenVersion(ctx, user.ID)
			done <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-done; err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	version, err := repo.TokenVersion(ctx, user.ID)
	if err != nil {
		t.Fatalf("token version: %v", err)
	}
	if version != workers {
		t.Fatalf("expected version %d, got %d", workers, version)
	}
}
