package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"signal-net/internal/domain"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge domain.Challenge) error
	GetByID(ctx context.Context, id string) (domain.Challenge, error)
	GetByIDForUpdate(ctx context.Context, id string) (domain.Challenge, error)
	Update(ctx context.Context, challenge domain.Challenge) error
}

type PgChallengeRepository struct {
	db DBTX
}

func NewPgChallengeRepository(db DBTX) *PgChallengeRepository {
	return &PgChallengeRepository{db: db}
}

const challengeColumns = `id, signal_id, challenger_id, target_id, winner_id, stake_amount, status, created_at, updated_at, resolved_at`

func (r *PgChallengeRepository) Create(ctx context.Context, challenge domain.Challenge) error {
	const query = `
		INSERT INTO challenges (id, signal_id, challenger_id, target_id, stake_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		challenge.ID,
		challenge.SignalID,
		challenge.ChallengerID,
		nullableString(challenge.TargetID),
		challenge.StakeAmount,
		string(challenge.Status),
		challenge.CreatedAt,
		challenge.UpdatedAt,
	)
	return err
}

func (r *PgChallengeRepository) GetByID(ctx context.Context, id string) (domain.Challenge, error) {
	return scanChallenge(r.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

func (r *PgChallengeRepository) GetByIDForUpdate(ctx context.Context, id string) (domain.Challenge, error) {
	return scanChallenge(r.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1 FOR UPDATE`, id))
}

func (r *PgChallengeRepository) Update(ctx context.Context, challenge domain.Challenge) error {
	const query = `
		UPDATE challenges
		SET target_id = $2, winner_id = $3, status = $4, updated_at = $5, resolved_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		challenge.ID,
		nullableString(challenge.TargetID),
		nullableString(challenge.WinnerID),
		string(challenge.Status),
		challenge.UpdatedAt,
		challenge.ResolvedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanChallenge(row pgx.Row) (domain.Challenge, error) {
	var c domain.Challenge
	var targetID, winnerID *string
	var status string
	err := row.Scan(
		&c.ID,
		&c.SignalID,
		&c.ChallengerID,
		&targetID,
		&winnerID,
		&c.StakeAmount,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ResolvedAt,
	)
	if err != nil {
		return domain.Challenge{}, err
	}
	if targetID != nil {
		c.TargetID = *targetID
	}
	if winnerID != nil {
		c.WinnerID = *winnerID
	}
	c.Status = domain.ChallengeStatus(status)
	return c, nil
}
