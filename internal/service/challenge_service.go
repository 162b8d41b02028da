package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/events"
	"signal-net/internal/metrics"
	"signal-net/internal/repository"
)

// ChallengeService administra el ciclo PENDING -> ACCEPTED -> RESOLVED.
// Los puntos del pozo se debitan al crear y al aceptar y se acreditan al ganador al resolver.
type ChallengeService struct {
	logger    *zap.Logger
	store     repository.Store
	clock     clockwork.Clock
	publisher events.Publisher
	metrics   *metrics.Recorder
}

func NewChallengeService(logger *zap.Logger, store repository.Store, clock clockwork.Clock, publisher events.Publisher, recorder *metrics.Recorder) *ChallengeService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ChallengeService{
		logger:    logger,
		store:     store,
		clock:     clock,
		publisher: publisher,
		metrics:   recorder,
	}
}

type CreateChallengeInput struct {
	ChallengerID string
	SignalID     string
	// TargetID vacio crea un challenge abierto.
	TargetID    string
	StakeAmount int
}

// CreateChallenge debita el stake del retador y deja el challenge en PENDING.
func (s *ChallengeService) CreateChallenge(ctx context.Context, input CreateChallengeInput) (domain.Challenge, error) {
	if !domain.ValidStake(input.StakeAmount) {
		return domain.Challenge{}, ErrInvalidStake
	}
	targetID := strings.TrimSpace(input.TargetID)

	var challenge domain.Challenge
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// La senal se bloquea antes que el usuario, igual que al registrar convicciones.
		signal, err := repos.Signals.GetByIDForUpdate(ctx, input.SignalID)
		if err != nil {
			return notFoundAs(err, ErrSignalNotFound)
		}
		if signal.IsResolved() {
			return ErrChallengeSignalResolved
		}
		challenger, err := repos.Users.GetByIDForUpdate(ctx, input.ChallengerID)
		if err != nil {
			return notFoundAs(err, ErrChallengerNotFound)
		}
		if challenger.DailyPoints < input.StakeAmount {
			return insufficientPoints(challenger.DailyPoints, input.StakeAmount)
		}
		if targetID != "" {
			if targetID == challenger.ID {
				return ErrSelfChallenge
			}
			if _, err := repos.Users.GetByID(ctx, targetID); err != nil {
				return notFoundAs(err, ErrTargetNotFound)
			}
		}

		if err := debit(ctx, repos, challenger, input.StakeAmount); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		challenge = domain.Challenge{
			ID:           uuid.NewString(),
			SignalID:     signal.ID,
			ChallengerID: challenger.ID,
			TargetID:     targetID,
			StakeAmount:  input.StakeAmount,
			Status:       domain.ChallengePending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return repos.Challenges.Create(ctx, challenge)
	})
	if err != nil {
		return domain.Challenge{}, err
	}

	s.afterTransition(ctx, events.TypeChallengeCreated, challenge)
	return challenge, nil
}

// AcceptChallenge debita el stake del que acepta y lo fija como rival.
func (s *ChallengeService) AcceptChallenge(ctx context.Context, userID, challengeID string) (domain.Challenge, error) {
	var challenge domain.Challenge
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		challenge, err = repos.Challenges.GetByIDForUpdate(ctx, challengeID)
		if err != nil {
			return notFoundAs(err, ErrChallengeNotFound)
		}
		if challenge.Status != domain.ChallengePending {
			return ErrChallengeNotPending
		}
		if challenge.ChallengerID == userID {
			return ErrOwnChallenge
		}
		if !challenge.IsOpen() && challenge.TargetID != userID {
			return ErrNotChallengeTarget
		}

		user, err := repos.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if user.DailyPoints < challenge.StakeAmount {
			return insufficientPoints(user.DailyPoints, challenge.StakeAmount)
		}
		if err := debit(ctx, repos, user, challenge.StakeAmount); err != nil {
			return err
		}

		challenge.TargetID = userID
		challenge.Status = domain.ChallengeAccepted
		challenge.UpdatedAt = s.clock.Now().UTC()
		return repos.Challenges.Update(ctx, challenge)
	})
	if err != nil {
		return domain.Challenge{}, err
	}

	s.afterTransition(ctx, events.TypeChallengeAccepted, challenge)
	return challenge, nil
}

// ResolveChallenge acredita el pozo al ganador y mueve la credibilidad de ambos
// participantes en +/-5, con una entrada de historial para cada uno.
// resolverID solo se registra: decidir el ganador es responsabilidad de quien llama.
func (s *ChallengeService) ResolveChallenge(ctx context.Context, resolverID, challengeID, winnerID string) (domain.Challenge, error) {
	var challenge domain.Challenge
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		challenge, err = repos.Challenges.GetByIDForUpdate(ctx, challengeID)
		if err != nil {
			return notFoundAs(err, ErrChallengeNotFound)
		}
		if challenge.Status != domain.ChallengeAccepted {
			return ErrChallengeNotAccepted
		}
		if !challenge.IsParticipant(winnerID) {
			return ErrInvalidWinner
		}
		loserID := challenge.Opponent(winnerID)
		if err := lockParticipants(ctx, repos, winnerID, loserID); err != nil {
			return err
		}
		now := s.clock.Now().UTC()

		if _, err := repos.Users.CreditPoints(ctx, winnerID, challenge.Pot()); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if _, err := adjustCredibility(ctx, repos, now, winnerID, domain.ChallengeCredibilityDelta, fmt.Sprintf("Won challenge #%s", challenge.ID)); err != nil {
			return err
		}
		if _, err := adjustCredibility(ctx, repos, now, loserID, -domain.ChallengeCredibilityDelta, fmt.Sprintf("Lost challenge #%s", challenge.ID)); err != nil {
			return err
		}

		challenge.WinnerID = winnerID
		challenge.Status = domain.ChallengeResolved
		challenge.UpdatedAt = now
		challenge.ResolvedAt = &now
		return repos.Challenges.Update(ctx, challenge)
	})
	if err != nil {
		return domain.Challenge{}, err
	}

	s.logger.Info("challenge resolved", zap.String("resolver_id", resolverID), zap.String("challenge_id", challenge.ID))
	s.afterTransition(ctx, events.TypeChallengeResolved, challenge)
	return challenge, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	challenge, err := s.store.Repos().Challenges.GetByID(ctx, id)
	if err != nil {
		return domain.Challenge{}, notFoundAs(err, ErrChallengeNotFound)
	}
	return challenge, nil
}

func (s *ChallengeService) afterTransition(ctx context.Context, eventType string, challenge domain.Challenge) {
	s.metrics.RecordChallenge(string(challenge.Status))
	s.logger.Info("challenge transition",
		zap.String("challenge_id", challenge.ID),
		zap.String("signal_id", challenge.SignalID),
		zap.String("status", string(challenge.Status)),
		zap.Int("stake", challenge.StakeAmount),
	)
	publishEvent(ctx, s.logger, s.publisher, events.Event{
		Type:       eventType,
		Key:        challenge.SignalID,
		Payload:    challenge,
		OccurredAt: challenge.UpdatedAt,
	})
}

// lockParticipants bloquea ambas filas en orden de id, sin importar quien gano.
func lockParticipants(ctx context.Context, repos repository.Repositories, a, b string) error {
	ids := []string{a, b}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := repos.Users.GetByIDForUpdate(ctx, id); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
	}
	return nil
}

// debit usa el debito condicional del repositorio; una carrera que vacie el saldo
// despues de la lectura termina igual en PaymentRequired.
func debit(ctx context.Context, repos repository.Repositories, user domain.User, amount int) error {
	if _, err := repos.Users.DebitPoints(ctx, user.ID, amount); err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			return insufficientPoints(user.DailyPoints, amount)
		}
		return notFoundAs(err, ErrUserNotFound)
	}
	return nil
}
