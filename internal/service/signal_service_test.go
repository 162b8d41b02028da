package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/events"
)

func TestCreateSignal(t *testing.T) {
	store, clock := newTestStore(t)
	seedUser(t, store, "u1", 50, 100)
	svc := NewSignalService(zap.NewNop(), store, clock, nil, DefaultMinSignalCredibility)

	signal, err := svc.CreateSignal(context.Background(), CreateSignalInput{
		UserID:   "u1",
		Content:  "  ETH flips BTC by market cap  ",
		Category: "crypto",
		Topic:    "markets",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if signal.Content != "ETH flips BTC by market cap" {
		t.Fatalf("expected trimmed content, got %q", signal.Content)
	}
	if signal.Consensus != domain.DefaultConsensus || signal.Momentum != 0 || signal.ParticipantCount != 0 {
		t.Fatalf("unexpected initial aggregates: %+v", signal)
	}
	if got := getSignal(t, store, signal.ID); got.UserID != "u1" {
		t.Fatalf("expected stored signal, got %+v", got)
	}
}

func TestCreateSignal_Errors(t *testing.T) {
	store, clock := newTestStore(t)
	seedUser(t, store, "u1", 50, 100)
	seedUser(t, store, "newbie", 10, 100)
	svc := NewSignalService(zap.NewNop(), store, clock, nil, DefaultMinSignalCredibility)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateSignalInput
		want  error
	}{
		{"short content", CreateSignalInput{UserID: "u1", Content: "too short", Category: "x"}, ErrSignalContent},
		{"long content", CreateSignalInput{UserID: "u1", Content: strings.Repeat("a", 501), Category: "x"}, ErrSignalContent},
		{"missing category", CreateSignalInput{UserID: "u1", Content: "a valid prediction", Category: ""}, ErrSignalCategory},
		{"unknown user", CreateSignalInput{UserID: "ghost", Content: "a valid prediction", Category: "x"}, ErrUserNotFound},
		{"low credibility", CreateSignalInput{UserID: "newbie", Content: "a valid prediction", Category: "x"}, ErrInsufficientCredibility},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSignal(ctx, tc.input)
			assertErr(t, err, tc.want)
		})
	}
}

func TestResolveSignal(t *testing.T) {
	store, clock := newTestStore(t)
	seedUser(t, store, "author", 50, 100)
	seedUser(t, store, "other", 50, 100)
	seedSignal(t, store, "s1", "author")
	pub := &recordingPublisher{}
	svc := NewSignalService(zap.NewNop(), store, clock, pub, DefaultMinSignalCredibility)
	ctx := context.Background()

	_, err := svc.ResolveSignal(ctx, "other", "s1", 100)
	assertKind(t, err, domain.KindForbidden)
	_, err = svc.ResolveSignal(ctx, "author", "s1", 101)
	assertErr(t, err, ErrResolvedValue)
	_, err = svc.ResolveSignal(ctx, "author", "missing", 100)
	assertErr(t, err, ErrSignalNotFound)

	signal, err := svc.ResolveSignal(ctx, "author", "s1", 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !signal.IsResolved() || *signal.ResolvedValue != 100 || !signal.ResolvedAt.Equal(testEpoch) {
		t.Fatalf("unexpected resolved signal: %+v", signal)
	}
	if !getSignal(t, store, "s1").IsResolved() {
		t.Fatalf("expected stored signal resolved")
	}

	_, err = svc.ResolveSignal(ctx, "author", "s1", 0)
	assertErr(t, err, ErrSignalAlreadyResolved)

	if got := pub.types(); len(got) != 1 || got[0] != events.TypeSignalResolved {
		t.Fatalf("unexpected events: %v", got)
	}
}
