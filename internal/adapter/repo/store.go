// Package repo implements the domain repositories on PostgreSQL through
// marker-tagged inline SQL.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
)

// StorePG implements domain.Store on top of an infra.SQLExecutor.
type StorePG struct {
	sql infra.SQLExecutor
}

// NewStore creates a store. Transactions need an executor that also
// implements infra.TxRunner, such as *infra.SQLRunner.
func NewStore(sql infra.SQLExecutor) *StorePG {
	return &StorePG{sql: sql}
}

func (s *StorePG) Users() domain.UserRepository         { return &UserRepositoryPG{sql: s.sql} }
func (s *StorePG) Donations() domain.DonationRepository { return &DonationRepositoryPG{sql: s.sql} }
func (s *StorePG) Requests() domain.RequestRepository   { return &RequestRepositoryPG{sql: s.sql} }
func (s *StorePG) Tokens() domain.TokenRepository       { return &TokenRepositoryPG{sql: s.sql} }
func (s *StorePG) Stats() domain.StatsRepository        { return &StatsRepositoryPG{sql: s.sql} }

// InTx runs fn with a store bound to one database transaction.
func (s *StorePG) InTx(ctx context.Context, fn func(domain.Store) error) error {
	runner, ok := s.sql.(infra.TxRunner)
	if !ok {
		return errors.New("repo: executor does not support transactions")
	}
	return runner.InTx(ctx, func(tx infra.SQLExecutor) error {
		return fn(&StorePG{sql: tx})
	})
}

var _ domain.Store = (*StorePG)(nil)

const pgUniqueViolation = "23505"

// uniqueViolation reports the violated constraint name, if err is one.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
