package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/events"
	"signal-net/internal/metrics"
	"signal-net/internal/repository"
)

// ConvictionService registra convicciones y mantiene el consenso de cada senal.
type ConvictionService struct {
	logger    *zap.Logger
	store     repository.Store
	clock     clockwork.Clock
	publisher events.Publisher
	metrics   *metrics.Recorder
	limiter   ConvictionRateLimiter
}

// NewConvictionService acepta limiter nil: sin limite de frecuencia.
func NewConvictionService(logger *zap.Logger, store repository.Store, clock clockwork.Clock, publisher events.Publisher, recorder *metrics.Recorder, limiter ConvictionRateLimiter) *ConvictionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ConvictionService{
		logger:    logger,
		store:     store,
		clock:     clock,
		publisher: publisher,
		metrics:   recorder,
		limiter:   limiter,
	}
}

// ConvictionRecorded es el payload del evento conviction.recorded.
type ConvictionRecorded struct {
	Conviction       domain.Conviction `json:"conviction"`
	Created          bool              `json:"created"`
	Consensus        float64           `json:"consensus"`
	ParticipantCount int               `json:"participant_count"`
}

// SubmitConviction crea o reemplaza la conviccion del usuario sobre la senal. El peso se
// toma de la credibilidad actual y el consenso se recalcula en la misma transaccion,
// con la fila de la senal bloqueada para serializar escrituras concurrentes.
func (s *ConvictionService) SubmitConviction(ctx context.Context, userID, signalID string, value float64) (domain.Conviction, error) {
	if !domain.ValidConvictionValue(value) {
		return domain.Conviction{}, ErrConvictionOutOfRange
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, userID, signalID) {
		return domain.Conviction{}, ErrConvictionRateLimited
	}

	var (
		result  domain.Conviction
		created bool
		signal  domain.Signal
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		signal, err = repos.Signals.GetByIDForUpdate(ctx, signalID)
		if err != nil {
			return notFoundAs(err, ErrSignalNotFound)
		}
		if signal.IsResolved() {
			return ErrSignalResolved
		}

		now := s.clock.Now().UTC()
		weight := domain.ConvictionWeight(user.CredibilityScore)

		existing, err := repos.Convictions.FindByUserAndSignal(ctx, userID, signalID)
		switch {
		case err == nil:
			// createdAt se conserva: el momentum mide la edad de la primera opinion.
			existing.Value = value
			existing.Weight = weight
			existing.UpdatedAt = now
			if err := repos.Convictions.Update(ctx, existing); err != nil {
				return err
			}
			result = existing
		case errors.Is(err, pgx.ErrNoRows):
			result = domain.Conviction{
				ID:        uuid.NewString(),
				UserID:    userID,
				SignalID:  signalID,
				Value:     value,
				Weight:    weight,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repos.Convictions.Create(ctx, result); err != nil {
				return err
			}
			if err := repos.Signals.IncrementParticipants(ctx, signalID); err != nil {
				return err
			}
			signal.ParticipantCount++
			created = true
		default:
			return err
		}

		consensus, err := recomputeConsensus(ctx, repos, signalID)
		if err != nil {
			return err
		}
		signal.Consensus = consensus
		return nil
	})
	if err != nil {
		return domain.Conviction{}, err
	}

	s.metrics.RecordConviction(created)
	s.logger.Info("conviction recorded",
		zap.String("user_id", userID),
		zap.String("signal_id", signalID),
		zap.Float64("value", value),
		zap.Float64("weight", result.Weight),
		zap.Bool("created", created),
		zap.Float64("consensus", signal.Consensus),
	)
	publishEvent(ctx, s.logger, s.publisher, events.Event{
		Type: events.TypeConvictionRecorded,
		Key:  signalID,
		Payload: ConvictionRecorded{
			Conviction:       result,
			Created:          created,
			Consensus:        signal.Consensus,
			ParticipantCount: signal.ParticipantCount,
		},
		OccurredAt: result.UpdatedAt,
	})
	return result, nil
}

// GetConviction devuelve nil sin error cuando el usuario no opino sobre la senal.
func (s *ConvictionService) GetConviction(ctx context.Context, userID, signalID string) (*domain.Conviction, error) {
	conviction, err := s.store.Repos().Convictions.FindByUserAndSignal(ctx, userID, signalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conviction, nil
}

// recomputeConsensus persiste el consenso de todas las convicciones de la senal.
// Sin convicciones el valor almacenado no se toca.
func recomputeConsensus(ctx context.Context, repos repository.Repositories, signalID string) (float64, error) {
	convictions, err := repos.Convictions.ListBySignal(ctx, signalID)
	if err != nil {
		return 0, err
	}
	consensus, ok := WeightedConsensus(convictions)
	if !ok {
		signal, err := repos.Signals.GetByID(ctx, signalID)
		if err != nil {
			return 0, err
		}
		return signal.Consensus, nil
	}
	if err := repos.Signals.UpdateConsensus(ctx, signalID, consensus); err != nil {
		return 0, err
	}
	return consensus, nil
}

// WeightedConsensus mapea la media ponderada de valores en [-100, 100] a [0, 100].
// ok es false si no hay convicciones.
func WeightedConsensus(convictions []domain.Conviction) (consensus float64, ok bool) {
	if len(convictions) == 0 {
		return 0, false
	}
	var weighted, totalWeight float64
	for _, c := range convictions {
		weighted += c.Value * c.Weight
		totalWeight += c.Weight
	}
	var raw float64
	if totalWeight > 0 {
		raw = weighted / totalWeight
	}
	return (raw + 100) / 2, true
}
