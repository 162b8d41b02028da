package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"signal-net/internal/domain"
)

type SignalRepository interface {
	Create(ctx context.Context, signal domain.Signal) error
	GetByID(ctx context.Context, id string) (domain.Signal, error)
	GetByIDForUpdate(ctx context.Context, id string) (domain.Signal, error)
	IncrementParticipants(ctx context.Context, id string) error
	UpdateConsensus(ctx context.Context, id string, consensus float64) error
	UpdateMomentum(ctx context.Context, id string, momentum float64) error
	Resolve(ctx context.Context, id string, value float64, resolvedAt time.Time) error
	// ListMomentumCandidates devuelve senales sin resolver con convicciones desde since o momentum > 0.
	ListMomentumCandidates(ctx context.Context, since time.Time) ([]string, error)
}

type PgSignalRepository struct {
	db DBTX
}

func NewPgSignalRepository(db DBTX) *PgSignalRepository {
	return &PgSignalRepository{db: db}
}

const signalColumns = `id, user_id, content, topic, category, timeframe, consensus, momentum, participant_count, resolved_at, resolved_value, created_at, updated_at`

func (r *PgSignalRepository) Create(ctx context.Context, signal domain.Signal) error {
	const query = `
		INSERT INTO signals (id, user_id, content, topic, category, timeframe, consensus, momentum, participant_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		signal.ID,
		signal.UserID,
		signal.Content,
		nullableString(signal.Topic),
		signal.Category,
		nullableString(signal.Timeframe),
		signal.Consensus,
		signal.Momentum,
		signal.ParticipantCount,
		signal.CreatedAt,
		signal.UpdatedAt,
	)
	return err
}

func (r *PgSignalRepository) GetByID(ctx context.Context, id string) (domain.Signal, error) {
	return scanSignal(r.db.QueryRow(ctx, `SELECT `+signalColumns+` FROM signals WHERE id = $1`, id))
}

func (r *PgSignalRepository) GetByIDForUpdate(ctx context.Context, id string) (domain.Signal, error) {
	return scanSignal(r.db.QueryRow(ctx, `SELECT `+signalColumns+` FROM signals WHERE id = $1 FOR UPDATE`, id))
}

func (r *PgSignalRepository) IncrementParticipants(ctx context.Context, id string) error {
	const query = `UPDATE signals SET participant_count = participant_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PgSignalRepository) UpdateConsensus(ctx context.Context, id string, consensus float64) error {
	const query = `UPDATE signals SET consensus = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, consensus)
}

func (r *PgSignalRepository) UpdateMomentum(ctx context.Context, id string, momentum float64) error {
	const query = `UPDATE signals SET momentum = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, momentum)
}

func (r *PgSignalRepository) Resolve(ctx context.Context, id string, value float64, resolvedAt time.Time) error {
	const query = `
		UPDATE signals
		SET resolved_at = $2, resolved_value = $3, updated_at = $2
		WHERE id = $1 AND resolved_at IS NULL
	`
	return r.execOne(ctx, query, id, resolvedAt, value)
}

func (r *PgSignalRepository) ListMomentumCandidates(ctx context.Context, since time.Time) ([]string, error) {
	const query = `
		SELECT s.id
		FROM signals s
		WHERE s.resolved_at IS NULL
		  AND (s.momentum > 0 OR EXISTS (
			SELECT 1 FROM convictions c WHERE c.signal_id = s.id AND c.created_at >= $1
		  ))
		ORDER BY s.id
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PgSignalRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSignal(row pgx.Row) (domain.Signal, error) {
	var s domain.Signal
	var topic, timeframe *string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Content,
		&topic,
		&s.Category,
		&timeframe,
		&s.Consensus,
		&s.Momentum,
		&s.ParticipantCount,
		&s.ResolvedAt,
		&s.ResolvedValue,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Signal{}, err
	}
	if topic != nil {
		s.Topic = *topic
	}
	if timeframe != nil {
		s.Timeframe = *timeframe
	}
	return s, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
