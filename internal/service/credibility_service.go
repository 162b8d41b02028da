package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/repository"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
	defaultHistoryLimit     = 20
	maxHistoryLimit         = 50
)

// CredibilityService mantiene el puntaje de credibilidad y su historial.
type CredibilityService struct {
	logger *zap.Logger
	store  repository.Store
	clock  clockwork.Clock
}

func NewCredibilityService(logger *zap.Logger, store repository.Store, clock clockwork.Clock) *CredibilityService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CredibilityService{logger: logger, store: store, clock: clock}
}

// UserScore es el puntaje de un usuario junto con su posicion global.
type UserScore struct {
	UserID           string  `json:"user_id"`
	Handle           string  `json:"handle"`
	CredibilityScore float64 `json:"credibility_score"`
	Accuracy         float64 `json:"accuracy"`
	Streak           int     `json:"streak"`
	Rank             int     `json:"rank"`
}

// AdjustCredibility suma delta al puntaje y registra una entrada de historial con el puntaje resultante.
// El puntaje no se acota: puede quedar negativo.
func (s *CredibilityService) AdjustCredibility(ctx context.Context, userID string, delta float64, reason string) (domain.CredibilityHistory, error) {
	var entry domain.CredibilityHistory
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		entry, err = adjustCredibility(ctx, repos, s.clock.Now().UTC(), userID, delta, reason)
		return err
	})
	if err != nil {
		return domain.CredibilityHistory{}, err
	}
	s.logger.Info("credibility adjusted",
		zap.String("user_id", userID),
		zap.Float64("change", delta),
		zap.Float64("score", entry.Score),
		zap.String("reason", entry.Reason),
	)
	return entry, nil
}

// adjustCredibility es la version transaccional; la usan registro y resolucion de desafios.
func adjustCredibility(ctx context.Context, repos repository.Repositories, now time.Time, userID string, delta float64, reason string) (domain.CredibilityHistory, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.CredibilityHistory{}, ErrEmptyReason
	}
	score, err := repos.Users.AddCredibility(ctx, userID, delta)
	if err != nil {
		return domain.CredibilityHistory{}, notFoundAs(err, ErrUserNotFound)
	}
	entry := domain.CredibilityHistory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Change:    delta,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := repos.Credibility.Append(ctx, entry); err != nil {
		return domain.CredibilityHistory{}, err
	}
	return entry, nil
}

// Leaderboard devuelve los usuarios con mayor credibilidad, con rank 1..n.
func (s *CredibilityService) Leaderboard(ctx context.Context, limit int) ([]domain.RankedUser, error) {
	limit = clampLimit(limit, defaultLeaderboardLimit, maxLeaderboardLimit)
	users, err := s.store.Repos().Users.ListTopByCredibility(ctx, limit)
	if err != nil {
		return nil, err
	}
	ranked := make([]domain.RankedUser, 0, len(users))
	for i, u := range users {
		ranked = append(ranked, domain.RankedUser{
			Rank:             i + 1,
			ID:               u.ID,
			Handle:           u.Handle,
			Name:             u.Name,
			CredibilityScore: u.CredibilityScore,
			Accuracy:         u.Accuracy,
			Streak:           u.Streak,
		})
	}
	return ranked, nil
}

// UserScore calcula el rank como la cantidad de usuarios con puntaje estrictamente mayor, mas uno.
func (s *CredibilityService) UserScore(ctx context.Context, userID string) (UserScore, error) {
	repos := s.store.Repos()
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return UserScore{}, notFoundAs(err, ErrUserNotFound)
	}
	higher, err := repos.Users.CountWithHigherCredibility(ctx, user.CredibilityScore)
	if err != nil {
		return UserScore{}, err
	}
	return UserScore{
		UserID:           user.ID,
		Handle:           user.Handle,
		CredibilityScore: user.CredibilityScore,
		Accuracy:         user.Accuracy,
		Streak:           user.Streak,
		Rank:             higher + 1,
	}, nil
}

// History devuelve los cambios de credibilidad mas recientes primero.
func (s *CredibilityService) History(ctx context.Context, userID string, limit int) ([]domain.CredibilityHistory, error) {
	repos := s.store.Repos()
	if _, err := repos.Users.GetByID(ctx, userID); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return repos.Credibility.ListByUser(ctx, userID, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
