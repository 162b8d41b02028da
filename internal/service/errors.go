package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-net/internal/domain"
)

var (
	ErrUserNotFound       = domain.NotFound("user not found")
	ErrSignalNotFound     = domain.NotFound("signal not found")
	ErrChallengeNotFound  = domain.NotFound("challenge not found")
	ErrChallengerNotFound = domain.NotFound("challenger not found")
	ErrTargetNotFound     = domain.NotFound("target user not found")

	ErrConvictionOutOfRange = domain.InvalidArgument("conviction value must be between -100 and 100")
	ErrInvalidStake         = domain.InvalidArgument("stake amount must be between 1 and 100")
	ErrSelfChallenge        = domain.InvalidArgument("cannot challenge yourself")
	ErrOwnChallenge         = domain.InvalidArgument("cannot accept your own challenge")
	ErrInvalidWinner        = domain.InvalidArgument("winner must be a participant in the challenge")
	ErrEmptyReason          = domain.InvalidArgument("reason is required")
	ErrInvalidHandle        = domain.InvalidArgument("handle must be 3-30 characters of letters, digits or underscore")
	ErrInvalidEmail         = domain.InvalidArgument("email is invalid")
	ErrInvalidName          = domain.InvalidArgument("name is required")
	ErrWeakPassword         = domain.InvalidArgument("password must be at least 8 characters")
	ErrSignalContent        = domain.InvalidArgument("content must be between 10 and 500 characters")
	ErrSignalCategory       = domain.InvalidArgument("category is required and must be at most 50 characters")
	ErrResolvedValue        = domain.InvalidArgument("resolved value must be between 0 and 100")

	ErrSignalResolved          = domain.InvalidState("cannot convict a resolved signal")
	ErrChallengeSignalResolved = domain.InvalidState("cannot challenge a resolved signal")
	ErrSignalAlreadyResolved   = domain.InvalidState("signal already resolved")
	ErrChallengeNotPending     = domain.InvalidState("challenge is not pending")
	ErrChallengeNotAccepted    = domain.InvalidState("challenge is not accepted")

	ErrHandleTaken = domain.Conflict("handle or email already registered")

	ErrNotChallengeTarget      = domain.Forbidden("challenge is targeted at another user")
	ErrNotSignalAuthor         = domain.Forbidden("only the author can resolve a signal")
	ErrInsufficientCredibility = domain.Forbidden("insufficient credibility to create signals")

	ErrConvictionRateLimited = &domain.Error{Kind: domain.KindRateLimited, Message: "too many convictions, try again later"}
)

func insufficientPoints(available, required int) error {
	return domain.PaymentRequired(fmt.Sprintf("insufficient points: have %d, need %d", available, required))
}

// notFoundAs traduce pgx.ErrNoRows al error de dominio dado; el resto pasa intacto.
func notFoundAs(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}
