package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements repository.Store using PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store on top of an open pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Users() repository.UserRepository   { return &userRepository{db: s.pool} }
func (s *Store) Genres() repository.GenreRepository { return &genreRepository{db: s.pool} }
func (s *Store) Books() repository.BookRepository   { return &bookRepository{db: s.pool} }
func (s *Store) Orders() repository.OrderRepository { return &orderRepository{db: s.pool} }

// BeginTx starts a READ COMMITTED transaction. Rows read through
// Books().GetForUpdate stay locked until Commit or Rollback.
func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// PostgresTx implements repository.Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Users() repository.UserRepository   { return &userRepository{db: t.tx} }
func (t *PostgresTx) Genres() repository.GenreRepository { return &genreRepository{db: t.tx} }
func (t *PostgresTx) Books() repository.BookRepository   { return &bookRepository{db: t.tx} }
func (t *PostgresTx) Orders() repository.OrderRepository { return &orderRepository{db: t.tx} }

func (t *PostgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *PostgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, repository.ErrDuplicate)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, repository.ErrInvalidReference)
		}
	}
	return err
}

// mustAffect turns an UPDATE that matched nothing into ErrNotFound.
func mustAffect(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
