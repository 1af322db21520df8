package repo

import (
	"context"
	"time"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/sqlinline"
)

// TokenRepositoryPG keeps revoked refresh tokens.
type TokenRepositoryPG struct {
	sql infra.SQLExecutor
}

// Blacklist relies on the jti primary key so that only one caller revokes a
// given token.
func (r *TokenRepositoryPG) Blacklist(ctx context.Context, jti string, userID int64, expiresAt time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QBlacklistToken, jti, userID, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TokenRepositoryPG) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.sql.QueryRow(ctx, sqlinline.QTokenBlacklisted, jti).Scan(&exists)
	return exists, err
}

func (r *TokenRepositoryPG) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QPurgeExpiredTokens, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StatsRepositoryPG reads the impact counters.
type StatsRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats
	row := r.sql.QueryRow(ctx, sqlinline.QStatsSummary)
	if err := row.Scan(&st.TotalUsers, &st.TotalDonations, &st.AvailableItems, &st.ClaimedDonations, &st.ApprovedRequests, &st.ItemsShared); err != nil {
		return nil, err
	}
	return &st, nil
}
