// Package memstore implementa repository.Store en memoria. Lo usan los tests y
// STORE_DRIVER=memory para correr el servicio sin Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"signal-net/internal/domain"
	"signal-net/internal/repository"
)

// Store serializa las transacciones con un mutex y restaura un snapshot si fn falla.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.User
	signals     map[string]domain.Signal
	convictions map[string]domain.Conviction
	challenges  map[string]domain.Challenge
	history     []domain.CredibilityHistory
}

func New() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		signals:     make(map[string]domain.Signal),
		convictions: make(map[string]domain.Conviction),
		challenges:  make(map[string]domain.Challenge),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Repos() repository.Repositories {
	return s.repos(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) repos(inTx bool) repository.Repositories {
	v := &view{s: s, inTx: inTx}
	return repository.Repositories{
		Users:       (*userRepo)(v),
		Signals:     (*signalRepo)(v),
		Convictions: (*convictionRepo)(v),
		Challenges:  (*challengeRepo)(v),
		Credibility: (*credibilityRepo)(v),
	}
}

type snapshot struct {
	users       map[string]domain.User
	signals     map[string]domain.Signal
	convictions map[string]domain.Conviction
	challenges  map[string]domain.Challenge
	history     []domain.CredibilityHistory
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:       copyMap(s.users),
		signals:     copyMap(s.signals),
		convictions: copyMap(s.convictions),
		challenges:  copyMap(s.challenges),
		history:     append([]domain.CredibilityHistory(nil), s.history...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.signals = snap.signals
	s.convictions = snap.convictions
	s.challenges = snap.challenges
	s.history = snap.history
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// view toma el lock solo fuera de transaccion; dentro ya lo tiene WithinTx.
type view struct {
	s    *Store
	inTx bool
}

func (v *view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// --- users ---

type userRepo view

func (r *userRepo) v() *view { return (*view)(r) }

func (r *userRepo) Create(_ context.Context, user domain.User) error {
	defer r.v().lock()()
	for _, u := range r.s.users {
		if u.Handle == user.Handle {
			return uniqueViolation("users_handle_key")
		}
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	defer r.v().lock()()
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	defer r.v().lock()()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *userRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	defer r.v().lock()()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.LastLogin = &at
	r.s.users[id] = u
	return nil
}

func (r *userRepo) ExistsByHandleOrEmail(_ context.Context, handle, email string) (bool, error) {
	defer r.v().lock()()
	for _, u := range r.s.users {
		if u.Handle == handle || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) AddCredibility(_ context.Context, id string, delta float64) (float64, error) {
	defer r.v().lock()()
	u, ok := r.s.users[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	u.CredibilityScore += delta
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return u.CredibilityScore, nil
}

func (r *userRepo) DebitPoints(_ context.Context, id string, amount int) (int, error) {
	defer r.v().lock()()
	u, ok := r.s.users[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if u.DailyPoints < amount {
		return 0, repository.ErrInsufficientPoints
	}
	u.DailyPoints -= amount
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return u.DailyPoints, nil
}

func (r *userRepo) CreditPoints(_ context.Context, id string, amount int) (int, error) {
	defer r.v().lock()()
	u, ok := r.s.users[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	u.DailyPoints += amount
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return u.DailyPoints, nil
}

func (r *userRepo) ListTopByCredibility(_ context.Context, limit int) ([]domain.User, error) {
	defer r.v().lock()()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CredibilityScore != users[j].CredibilityScore {
			return users[i].CredibilityScore > users[j].CredibilityScore
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *userRepo) CountWithHigherCredibility(_ context.Context, score float64) (int, error) {
	defer r.v().lock()()
	n := 0
	for _, u := range r.s.users {
		if u.CredibilityScore > score {
			n++
		}
	}
	return n, nil
}

// --- signals ---

type signalRepo view

func (r *signalRepo) v() *view { return (*view)(r) }

func (r *signalRepo) Create(_ context.Context, signal domain.Signal) error {
	defer r.v().lock()()
	r.s.signals[signal.ID] = signal
	return nil
}

func (r *signalRepo) GetByID(_ context.Context, id string) (domain.Signal, error) {
	defer r.v().lock()()
	s, ok := r.s.signals[id]
	if !ok {
		return domain.Signal{}, pgx.ErrNoRows
	}
	return s, nil
}

func (r *signalRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.Signal, error) {
	return r.GetByID(ctx, id)
}

func (r *signalRepo) update(id string, fn func(*domain.Signal) bool) error {
	defer r.v().lock()()
	s, ok := r.s.signals[id]
	if !ok || !fn(&s) {
		return pgx.ErrNoRows
	}
	r.s.signals[id] = s
	return nil
}

func (r *signalRepo) IncrementParticipants(_ context.Context, id string) error {
	return r.update(id, func(s *domain.Signal) bool {
		s.ParticipantCount++
		s.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *signalRepo) UpdateConsensus(_ context.Context, id string, consensus float64) error {
	return r.update(id, func(s *domain.Signal) bool {
		s.Consensus = consensus
		s.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *signalRepo) UpdateMomentum(_ context.Context, id string, momentum float64) error {
	return r.update(id, func(s *domain.Signal) bool {
		s.Momentum = momentum
		return true
	})
}

func (r *signalRepo) Resolve(_ context.Context, id string, value float64, resolvedAt time.Time) error {
	return r.update(id, func(s *domain.Signal) bool {
		if s.ResolvedAt != nil {
			return false
		}
		at := resolvedAt
		v := value
		s.ResolvedAt = &at
		s.ResolvedValue = &v
		s.UpdatedAt = resolvedAt
		return true
	})
}

func (r *signalRepo) ListMomentumCandidates(_ context.Context, since time.Time) ([]string, error) {
	defer r.v().lock()()
	recent := make(map[string]bool)
	for _, c := range r.s.convictions {
		if !c.CreatedAt.Before(since) {
			recent[c.SignalID] = true
		}
	}
	var ids []string
	for id, s := range r.s.signals {
		if s.ResolvedAt != nil {
			continue
		}
		if s.Momentum > 0 || recent[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// --- convictions ---

type convictionRepo view

func (r *convictionRepo) v() *view { return (*view)(r) }

func (r *convictionRepo) FindByUserAndSignal(_ context.Context, userID, signalID string) (domain.Conviction, error) {
	defer r.v().lock()()
	for _, c := range r.s.convictions {
		if c.UserID == userID && c.SignalID == signalID {
			return c, nil
		}
	}
	return domain.Conviction{}, pgx.ErrNoRows
}

func (r *convictionRepo) Create(_ context.Context, conviction domain.Conviction) error {
	defer r.v().lock()()
	for _, c := range r.s.convictions {
		if c.UserID == conviction.UserID && c.SignalID == conviction.SignalID {
			return uniqueViolation("convictions_user_id_signal_id_key")
		}
	}
	r.s.convictions[conviction.ID] = conviction
	return nil
}

func (r *convictionRepo) Update(_ context.Context, conviction domain.Conviction) error {
	defer r.v().lock()()
	existing, ok := r.s.convictions[conviction.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Value = conviction.Value
	existing.Weight = conviction.Weight
	existing.UpdatedAt = conviction.UpdatedAt
	r.s.convictions[conviction.ID] = existing
	return nil
}

func (r *convictionRepo) ListBySignal(ctx context.Context, signalID string) ([]domain.Conviction, error) {
	return r.ListBySignalSince(ctx, signalID, time.Time{})
}

func (r *convictionRepo) ListBySignalSince(_ context.Context, signalID string, since time.Time) ([]domain.Conviction, error) {
	defer r.v().lock()()
	var out []domain.Conviction
	for _, c := range r.s.convictions {
		if c.SignalID == signalID && !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- challenges ---

type challengeRepo view

func (r *challengeRepo) v() *view { return (*view)(r) }

func (r *challengeRepo) Create(_ context.Context, challenge domain.Challenge) error {
	defer r.v().lock()()
	r.s.challenges[challenge.ID] = challenge
	return nil
}

func (r *challengeRepo) GetByID(_ context.Context, id string) (domain.Challenge, error) {
	defer r.v().lock()()
	c, ok := r.s.challenges[id]
	if !ok {
		return domain.Challenge{}, pgx.ErrNoRows
	}
	return c, nil
}

func (r *challengeRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.Challenge, error) {
	return r.GetByID(ctx, id)
}

func (r *challengeRepo) Update(_ context.Context, challenge domain.Challenge) error {
	defer r.v().lock()()
	if _, ok := r.s.challenges[challenge.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.challenges[challenge.ID] = challenge
	return nil
}

// --- credibility history ---

type credibilityRepo view

func (r *credibilityRepo) v() *view { return (*view)(r) }

func (r *credibilityRepo) Append(_ context.Context, entry domain.CredibilityHistory) error {
	defer r.v().lock()()
	r.s.history = append(r.s.history, entry)
	return nil
}

func (r *credibilityRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.CredibilityHistory, error) {
	defer r.v().lock()()
	var out []domain.CredibilityHistory
	// history esta en orden de insercion; lo recorremos al reves para devolver lo mas nuevo primero.
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].UserID != userID {
			continue
		}
		out = append(out, r.s.history[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
