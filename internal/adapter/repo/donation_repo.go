package repo

import (
	"context"
	"strings"
	"time"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a new listing.
func (r *DonationRepositoryPG) Create(ctx context.Context, d *domain.Donation) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		d.DonorID, d.ItemName, d.Description, string(d.Category), d.Quantity, d.Image, string(d.Status))
	return row.Scan(&d.ID, &d.CreatedAt)
}

func (r *DonationRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	return r.get(ctx, sqlinline.QSelectDonationByID, id)
}

func (r *DonationRepositoryPG) GetForUpdate(ctx context.Context, id int64) (*domain.Donation, error) {
	return r.get(ctx, sqlinline.QSelectDonationForUpdate, id)
}

func (r *DonationRepositoryPG) get(ctx context.Context, query string, id int64) (*domain.Donation, error) {
	var s donationScan
	if err := r.sql.QueryRow(ctx, query, id).Scan(s.dest()...); err != nil {
		return nil, notFound(err)
	}
	d := s.result()
	return &d, nil
}

// List returns listings matching the filter, newest first.
func (r *DonationRepositoryPG) List(ctx context.Context, f domain.DonationFilter) ([]domain.Donation, error) {
	f = f.Normalize()
	rows, err := r.sql.Query(ctx, sqlinline.QListDonations,
		string(f.Category), string(f.Status), escapeLike(f.Search), f.DonorID, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Donation{}
	for rows.Next() {
		var s donationScan
		if err := rows.Scan(s.dest()...); err != nil {
			return nil, err
		}
		items = append(items, s.result())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DonationRepositoryPG) Update(ctx context.Context, d *domain.Donation) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateDonation,
		d.ID, d.ItemName, d.Description, string(d.Category), d.Quantity, d.Image, string(d.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DonationRepositoryPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteDonation, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DonationRepositoryPG) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QExpireDonations, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
