package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX es lo comun entre *pgxpool.Pool y pgx.Tx; los repositorios Pg funcionan con ambos.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories agrupa los repositorios que participan en una unidad de trabajo.
type Repositories struct {
	Users       UserRepository
	Signals     SignalRepository
	Convictions ConvictionRepository
	Challenges  ChallengeRepository
	Credibility CredibilityRepository
}

// Store expone repositorios fuera de transaccion y una unidad de trabajo atomica.
// Si fn devuelve error, nada de lo escrito dentro de WithinTx queda persistido.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

var (
	// ErrInsufficientPoints lo devuelve un debito condicional que no encontro saldo suficiente.
	ErrInsufficientPoints = errors.New("insufficient points")
)

// PgStore implementa Store sobre pgxpool.
type PgStore struct {
	pool  *pgxpool.Pool
	repos Repositories
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, repos: newPgRepositories(pool)}
}

func (s *PgStore) Repos() Repositories {
	return s.repos
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, newPgRepositories(tx))
	})
}

func newPgRepositories(db DBTX) Repositories {
	return Repositories{
		Users:       NewPgUserRepository(db),
		Signals:     NewPgSignalRepository(db),
		Convictions: NewPgConvictionRepository(db),
		Challenges:  NewPgChallengeRepository(db),
		Credibility: NewPgCredibilityRepository(db),
	}
}

// IsUniqueViolation detecta violaciones de indices unicos (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
