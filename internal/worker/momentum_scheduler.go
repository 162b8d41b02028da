// Package worker corre los jobs periodicos del servicio.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const momentumJobName = "momentum-sweep"

// MomentumSweeper es lo que el scheduler necesita de service.MomentumService.
type MomentumSweeper interface {
	RecomputeActive(ctx context.Context) (int, error)
}

// MomentumScheduler dispara el barrido de momentum cada interval. Con un locker
// distribuido solo una replica ejecuta cada tick.
type MomentumScheduler struct {
	logger    *zap.Logger
	sweeper   MomentumSweeper
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewMomentumScheduler(logger *zap.Logger, sweeper MomentumSweeper, interval time.Duration, locker gocron.Locker, clock clockwork.Clock) (*MomentumScheduler, error) {
	if sweeper == nil {
		return nil, errors.New("momentum sweeper is required")
	}
	if interval <= 0 {
		return nil, errors.New("momentum interval must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	opts := []gocron.SchedulerOption{
		gocron.WithClock(clock),
		gocron.WithLogger(zapGocronLogger{logger: logger}),
	}
	if locker != nil {
		opts = append(opts, gocron.WithDistributedLocker(locker))
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	m := &MomentumScheduler{
		logger:    logger,
		sweeper:   sweeper,
		interval:  interval,
		scheduler: sched,
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.RunOnce),
		gocron.WithName(momentumJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return m, nil
}

func (m *MomentumScheduler) Start() {
	m.logger.Info("momentum scheduler started", zap.Duration("interval", m.interval))
	m.scheduler.Start()
}

func (m *MomentumScheduler) Shutdown() error {
	return m.scheduler.Shutdown()
}

// RunOnce ejecuta un barrido acotado por el intervalo del job.
func (m *MomentumScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()
	n, err := m.sweeper.RecomputeActive(ctx)
	if err != nil {
		m.logger.Error("momentum sweep failed", zap.Int("updated", n), zap.Error(err))
	}
}

// zapGocronLogger adapta zap a gocron.Logger.
type zapGocronLogger struct {
	logger *zap.Logger
}

func (l zapGocronLogger) Debug(msg string, args ...any) { l.logger.Sugar().Debugw(msg, args...) }
func (l zapGocronLogger) Error(msg string, args ...any) { l.logger.Sugar().Errorw(msg, args...) }
func (l zapGocronLogger) Info(msg string, args ...any)  { l.logger.Sugar().Infow(msg, args...) }
func (l zapGocronLogger) Warn(msg string, args ...any)  { l.logger.Sugar().Warnw(msg, args...) }
