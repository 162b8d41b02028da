package repository

import (
	"context"

	"signal-net/internal/domain"
)

// CredibilityRepository es append-only: no hay update ni delete.
type CredibilityRepository interface {
	Append(ctx context.Context, entry domain.CredibilityHistory) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.CredibilityHistory, error)
}

type PgCredibilityRepository struct {
	db DBTX
}

func NewPgCredibilityRepository(db DBTX) *PgCredibilityRepository {
	return &PgCredibilityRepository{db: db}
}

func (r *PgCredibilityRepository) Append(ctx context.Context, entry domain.CredibilityHistory) error {
	const query = `
		INSERT INTO credibility_history (id, user_id, score, change, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Score,
		entry.Change,
		entry.Reason,
		entry.CreatedAt,
	)
	return err
}

func (r *PgCredibilityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.CredibilityHistory, error) {
	const query = `
		SELECT id, user_id, score, change, reason, created_at
		FROM credibility_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CredibilityHistory
	for rows.Next() {
		var h domain.CredibilityHistory
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Score,
			&h.Change,
			&h.Reason,
			&h.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
