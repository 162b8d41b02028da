package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/events"
	"signal-net/internal/repository"
)

const (
	minSignalContent  = 10
	maxSignalContent  = 500
	maxSignalCategory = 50
	maxSignalLabel    = 100
	// DefaultMinSignalCredibility es la credibilidad minima para publicar senales.
	DefaultMinSignalCredibility = 25.0
)

// SignalService publica y resuelve senales. Consensus y momentum los mantienen
// ConvictionService y MomentumService.
type SignalService struct {
	logger         *zap.Logger
	store          repository.Store
	clock          clockwork.Clock
	publisher      events.Publisher
	minCredibility float64
}

func NewSignalService(logger *zap.Logger, store repository.Store, clock clockwork.Clock, publisher events.Publisher, minCredibility float64) *SignalService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SignalService{
		logger:         logger,
		store:          store,
		clock:          clock,
		publisher:      publisher,
		minCredibility: minCredibility,
	}
}

type CreateSignalInput struct {
	UserID    string
	Content   string
	Topic     string
	Category  string
	Timeframe string
}

func (s *SignalService) CreateSignal(ctx context.Context, input CreateSignalInput) (domain.Signal, error) {
	content := strings.TrimSpace(input.Content)
	if n := utf8.RuneCountInString(content); n < minSignalContent || n > maxSignalContent {
		return domain.Signal{}, ErrSignalContent
	}
	category := strings.TrimSpace(input.Category)
	if category == "" || utf8.RuneCountInString(category) > maxSignalCategory {
		return domain.Signal{}, ErrSignalCategory
	}
	topic := truncateRunes(strings.TrimSpace(input.Topic), maxSignalLabel)
	timeframe := truncateRunes(strings.TrimSpace(input.Timeframe), maxSignalLabel)

	repos := s.store.Repos()
	user, err := repos.Users.GetByID(ctx, input.UserID)
	if err != nil {
		return domain.Signal{}, notFoundAs(err, ErrUserNotFound)
	}
	if user.CredibilityScore < s.minCredibility {
		return domain.Signal{}, ErrInsufficientCredibility
	}

	now := s.clock.Now().UTC()
	signal := domain.Signal{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Content:   content,
		Topic:     topic,
		Category:  category,
		Timeframe: timeframe,
		Consensus: domain.DefaultConsensus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Signals.Create(ctx, signal); err != nil {
		return domain.Signal{}, err
	}
	s.logger.Info("signal created", zap.String("signal_id", signal.ID), zap.String("user_id", user.ID), zap.String("category", category))
	return signal, nil
}

func (s *SignalService) GetSignal(ctx context.Context, id string) (domain.Signal, error) {
	signal, err := s.store.Repos().Signals.GetByID(ctx, id)
	if err != nil {
		return domain.Signal{}, notFoundAs(err, ErrSignalNotFound)
	}
	return signal, nil
}

// ResolveSignal cierra la senal con el resultado observado en [0, 100]. Solo el autor puede hacerlo.
func (s *SignalService) ResolveSignal(ctx context.Context, userID, signalID string, value float64) (domain.Signal, error) {
	if !(value >= 0 && value <= 100) {
		return domain.Signal{}, ErrResolvedValue
	}
	var signal domain.Signal
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		signal, err = repos.Signals.GetByIDForUpdate(ctx, signalID)
		if err != nil {
			return notFoundAs(err, ErrSignalNotFound)
		}
		if signal.UserID != userID {
			return ErrNotSignalAuthor
		}
		if signal.IsResolved() {
			return ErrSignalAlreadyResolved
		}
		now := s.clock.Now().UTC()
		if err := repos.Signals.Resolve(ctx, signalID, value, now); err != nil {
			return notFoundAs(err, ErrSignalAlreadyResolved)
		}
		signal.ResolvedAt = &now
		signal.ResolvedValue = &value
		signal.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Signal{}, err
	}

	s.logger.Info("signal resolved", zap.String("signal_id", signal.ID), zap.Float64("value", value))
	publishEvent(ctx, s.logger, s.publisher, events.Event{
		Type:       events.TypeSignalResolved,
		Key:        signal.ID,
		Payload:    signal,
		OccurredAt: *signal.ResolvedAt,
	})
	return signal, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
