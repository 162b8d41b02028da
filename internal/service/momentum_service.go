package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/metrics"
	"signal-net/internal/repository"
)

const maxMomentum = 100.0

// MomentumConfig parametriza la ventana y el decaimiento del momentum.
type MomentumConfig struct {
	Window     time.Duration
	DecayHours float64
	Scale      float64
}

func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{Window: 24 * time.Hour, DecayHours: 12, Scale: 10}
}

// MomentumService recalcula el momentum fuera del camino de escritura de convicciones.
type MomentumService struct {
	logger  *zap.Logger
	store   repository.Store
	clock   clockwork.Clock
	metrics *metrics.Recorder
	cfg     MomentumConfig
}

func NewMomentumService(logger *zap.Logger, store repository.Store, clock clockwork.Clock, recorder *metrics.Recorder, cfg MomentumConfig) *MomentumService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	def := DefaultMomentumConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.DecayHours <= 0 {
		cfg.DecayHours = def.DecayHours
	}
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	return &MomentumService{logger: logger, store: store, clock: clock, metrics: recorder, cfg: cfg}
}

// MomentumScore suma |valor| * peso * exp(-edad/decay) de las convicciones dentro de la
// ventana, escala y acota a 100. Una fecha futura cuenta como edad cero.
func MomentumScore(convictions []domain.Conviction, now time.Time, cfg MomentumConfig) float64 {
	var sum float64
	for _, c := range convictions {
		age := now.Sub(c.CreatedAt)
		if age > cfg.Window {
			continue
		}
		if age < 0 {
			age = 0
		}
		sum += math.Abs(c.Value) * c.Weight * math.Exp(-age.Hours()/cfg.DecayHours)
	}
	return math.Min(sum/cfg.Scale, maxMomentum)
}

// RecomputeMomentum recalcula y persiste el momentum de una senal.
func (s *MomentumService) RecomputeMomentum(ctx context.Context, signalID string) (float64, error) {
	repos := s.store.Repos()
	if _, err := repos.Signals.GetByID(ctx, signalID); err != nil {
		return 0, notFoundAs(err, ErrSignalNotFound)
	}
	now := s.clock.Now().UTC()
	convictions, err := repos.Convictions.ListBySignalSince(ctx, signalID, now.Add(-s.cfg.Window))
	if err != nil {
		return 0, err
	}
	momentum := MomentumScore(convictions, now, s.cfg)
	if err := repos.Signals.UpdateMomentum(ctx, signalID, momentum); err != nil {
		return 0, err
	}
	return momentum, nil
}

// RecomputeActive recorre las senales abiertas con actividad reciente o momentum residual.
// Un fallo en una senal no detiene el barrido; los errores se devuelven unidos.
func (s *MomentumService) RecomputeActive(ctx context.Context) (int, error) {
	start := s.clock.Now()
	ids, err := s.store.Repos().Signals.ListMomentumCandidates(ctx, start.UTC().Add(-s.cfg.Window))
	if err != nil {
		return 0, err
	}

	var (
		updated int
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.RecomputeMomentum(ctx, id); err != nil {
			s.logger.Warn("momentum recompute failed", zap.String("signal_id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		updated++
	}

	elapsed := s.clock.Since(start)
	s.metrics.RecordSweep(elapsed.Seconds(), updated)
	s.logger.Info("momentum sweep finished",
		zap.Int("candidates", len(ids)),
		zap.Int("updated", updated),
		zap.Duration("elapsed", elapsed),
	)
	return updated, errors.Join(errs...)
}
