package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"signal-net/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transaccion.
	GetByIDForUpdate(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	ExistsByHandleOrEmail(ctx context.Context, handle, email string) (bool, error)
	AddCredibility(ctx context.Context, id string, delta float64) (float64, error)
	DebitPoints(ctx context.Context, id string, amount int) (int, error)
	CreditPoints(ctx context.Context, id string, amount int) (int, error)
	ListTopByCredibility(ctx context.Context, limit int) ([]domain.User, error)
	CountWithHigherCredibility(ctx context.Context, score float64) (int, error)
}

// PgUserRepository implementa UserRepository usando pgx.
type PgUserRepository struct {
	db DBTX
}

func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, handle, email, name, password_hash, credibility_score, daily_points, accuracy, streak, created_at, updated_at, last_login`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, handle, email, name, password_hash, credibility_score, daily_points, accuracy, streak, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Handle,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CredibilityScore,
		user.DailyPoints,
		user.Accuracy,
		user.Streak,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByIDForUpdate(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) ExistsByHandleOrEmail(ctx context.Context, handle, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE handle = $1 OR email = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, handle, email).Scan(&exists)
	return exists, err
}

func (r *PgUserRepository) AddCredibility(ctx context.Context, id string, delta float64) (float64, error) {
	const query = `
		UPDATE users
		SET credibility_score = credibility_score + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING credibility_score
	`
	var score float64
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&score)
	return score, err
}

func (r *PgUserRepository) DebitPoints(ctx context.Context, id string, amount int) (int, error) {
	const query = `
		UPDATE users
		SET daily_points = daily_points - $2, updated_at = NOW()
		WHERE id = $1 AND daily_points >= $2
		RETURNING daily_points
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, id, amount).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguimos usuario inexistente de saldo insuficiente.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientPoints
	}
	return remaining, err
}

func (r *PgUserRepository) CreditPoints(ctx context.Context, id string, amount int) (int, error) {
	const query = `
		UPDATE users
		SET daily_points = daily_points + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING daily_points
	`
	var balance int
	err := r.db.QueryRow(ctx, query, id, amount).Scan(&balance)
	return balance, err
}

func (r *PgUserRepository) ListTopByCredibility(ctx context.Context, limit int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY credibility_score DESC, created_at ASC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PgUserRepository) CountWithHigherCredibility(ctx context.Context, score float64) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE credibility_score > $1`
	var n int
	err := r.db.QueryRow(ctx, query, score).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var name *string
	err := row.Scan(
		&u.ID,
		&u.Handle,
		&u.Email,
		&name,
		&u.PasswordHash,
		&u.CredibilityScore,
		&u.DailyPoints,
		&u.Accuracy,
		&u.Streak,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLogin,
	)
	if name != nil {
		u.Name = *name
	}
	return u, err
}
