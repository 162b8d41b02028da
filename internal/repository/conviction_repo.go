package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"signal-net/internal/domain"
)

type ConvictionRepository interface {
	// FindByUserAndSignal devuelve pgx.ErrNoRows si el usuario aun no opino sobre la senal.
	FindByUserAndSignal(ctx context.Context, userID, signalID string) (domain.Conviction, error)
	Create(ctx context.Context, conviction domain.Conviction) error
	Update(ctx context.Context, conviction domain.Conviction) error
	ListBySignal(ctx context.Context, signalID string) ([]domain.Conviction, error)
	ListBySignalSince(ctx context.Context, signalID string, since time.Time) ([]domain.Conviction, error)
}

type PgConvictionRepository struct {
	db DBTX
}

func NewPgConvictionRepository(db DBTX) *PgConvictionRepository {
	return &PgConvictionRepository{db: db}
}

const convictionColumns = `id, user_id, signal_id, value, weight, created_at, updated_at`

func (r *PgConvictionRepository) FindByUserAndSignal(ctx context.Context, userID, signalID string) (domain.Conviction, error) {
	query := `SELECT ` + convictionColumns + ` FROM convictions WHERE user_id = $1 AND signal_id = $2 LIMIT 1`
	var c domain.Conviction
	err := r.db.QueryRow(ctx, query, userID, signalID).Scan(
		&c.ID,
		&c.UserID,
		&c.SignalID,
		&c.Value,
		&c.Weight,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Conviction{}, err
	}
	return c, nil
}

func (r *PgConvictionRepository) Create(ctx context.Context, conviction domain.Conviction) error {
	const query = `
		INSERT INTO convictions (id, user_id, signal_id, value, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		conviction.ID,
		conviction.UserID,
		conviction.SignalID,
		conviction.Value,
		conviction.Weight,
		conviction.CreatedAt,
		conviction.UpdatedAt,
	)
	return err
}

func (r *PgConvictionRepository) Update(ctx context.Context, conviction domain.Conviction) error {
	const query = `UPDATE convictions SET value = $2, weight = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		conviction.ID,
		conviction.Value,
		conviction.Weight,
		conviction.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgConvictionRepository) ListBySignal(ctx context.Context, signalID string) ([]domain.Conviction, error) {
	query := `SELECT ` + convictionColumns + ` FROM convictions WHERE signal_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, signalID)
}

func (r *PgConvictionRepository) ListBySignalSince(ctx context.Context, signalID string, since time.Time) ([]domain.Conviction, error) {
	query := `SELECT ` + convictionColumns + ` FROM convictions WHERE signal_id = $1 AND created_at >= $2 ORDER BY created_at ASC`
	return r.list(ctx, query, signalID, since)
}

func (r *PgConvictionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Conviction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convictions []domain.Conviction
	for rows.Next() {
		var c domain.Conviction
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.SignalID,
			&c.Value,
			&c.Weight,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		convictions = append(convictions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return convictions, nil
}
