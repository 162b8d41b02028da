package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"signal-net/internal/domain"
	"signal-net/internal/events"
	"signal-net/internal/repository/memstore"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestStore(t *testing.T) (*memstore.Store, *clockwork.FakeClock) {
	t.Helper()
	return memstore.New(), clockwork.NewFakeClockAt(testEpoch)
}

func seedUser(t *testing.T, store *memstore.Store, id string, credibility float64, points int) domain.User {
	t.Helper()
	user := domain.User{
		ID:               id,
		Handle:           id,
		Email:            id + "@example.com",
		CredibilityScore: credibility,
		DailyPoints:      points,
		CreatedAt:        testEpoch,
		UpdatedAt:        testEpoch,
	}
	if err := store.Repos().Users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func seedSignal(t *testing.T, store *memstore.Store, id, authorID string) domain.Signal {
	t.Helper()
	signal := domain.Signal{
		ID:        id,
		UserID:    authorID,
		Content:   "BTC closes above 100k this year",
		Category:  "crypto",
		Consensus: domain.DefaultConsensus,
		CreatedAt: testEpoch,
		UpdatedAt: testEpoch,
	}
	if err := store.Repos().Signals.Create(context.Background(), signal); err != nil {
		t.Fatalf("seed signal %s: %v", id, err)
	}
	return signal
}

func getUser(t *testing.T, store *memstore.Store, id string) domain.User {
	t.Helper()
	user, err := store.Repos().Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user %s: %v", id, err)
	}
	return user
}

func getSignal(t *testing.T, store *memstore.Store, id string) domain.Signal {
	t.Helper()
	signal, err := store.Repos().Signals.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get signal %s: %v", id, err)
	}
	return signal
}

func assertKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %v (%s)", kind, err, got)
	}
}

func assertErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
