package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"signal-net/internal/domain"
)

func TestRegister_SeedsCredibilityAndPoints(t *testing.T) {
	store, clock := newTestStore(t)
	svc := NewUserService(zap.NewNop(), store, clock)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Handle: " Alice_1 ", Email: "Alice@Example.com", Name: "Alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Handle != "alice_1" || user.Email != "alice@example.com" {
		t.Fatalf("expected normalized identity, got %+v", user)
	}
	if user.CredibilityScore != domain.InitialCredibility || user.DailyPoints != domain.InitialDailyPoints {
		t.Fatalf("unexpected starting balances: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatalf("expected hashed password")
	}

	stored := getUser(t, store, user.ID)
	if stored.CredibilityScore != 50 {
		t.Fatalf("expected stored credibility 50, got %v", stored.CredibilityScore)
	}
	history, err := store.Repos().Credibility.ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Reason != domain.ReasonAccountCreation || history[0].Change != 50 || history[0].Score != 50 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestRegister_Validation(t *testing.T) {
	store, clock := newTestStore(t)
	svc := NewUserService(zap.NewNop(), store, clock)

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"short handle", RegisterInput{Handle: "ab", Email: "a@b.co", Name: "A", Password: "secret123"}, ErrInvalidHandle},
		{"bad handle chars", RegisterInput{Handle: "al ice", Email: "a@b.co", Name: "A", Password: "secret123"}, ErrInvalidHandle},
		{"bad email", RegisterInput{Handle: "alice", Email: "not-an-email", Name: "A", Password: "secret123"}, ErrInvalidEmail},
		{"missing name", RegisterInput{Handle: "alice", Email: "a@b.co", Name: " ", Password: "secret123"}, ErrInvalidName},
		{"weak password", RegisterInput{Handle: "alice", Email: "a@b.co", Name: "A", Password: "short"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			assertErr(t, err, tc.want)
			assertKind(t, err, domain.KindInvalidArgument)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	store, clock := newTestStore(t)
	svc := NewUserService(zap.NewNop(), store, clock)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Name: "Alice", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "other@example.com", Name: "Other", Password: "secret123"})
	assertKind(t, err, domain.KindConflict)
	_, err = svc.Register(ctx, RegisterInput{Handle: "other", Email: "ALICE@example.com", Name: "Other", Password: "secret123"})
	assertErr(t, err, ErrHandleTaken)
}

func TestAuthenticate(t *testing.T) {
	store, clock := newTestStore(t)
	svc := NewUserService(zap.NewNop(), store, clock)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Name: "Alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(ctx, "ALICE@example.com", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID || user.LastLogin == nil {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	store, clock := newTestStore(t)
	svc := NewUserService(zap.NewNop(), store, clock)
	_, err := svc.GetUser(context.Background(), "missing")
	assertErr(t, err, ErrUserNotFound)
}
