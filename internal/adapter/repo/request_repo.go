package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/sqlinline"
)

// RequestRepositoryPG implements domain.RequestRepository using PostgreSQL.
type RequestRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRequestRepository creates a new request repo.
func NewRequestRepository(sql infra.SQLExecutor) *RequestRepositoryPG {
	return &RequestRepositoryPG{sql: sql}
}

func (r *RequestRepositoryPG) Create(ctx context.Context, req *domain.Request) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertRequest,
		req.UserID, req.DonationID, string(req.Status), req.RequestedQuantity, req.Comments)
	if err := row.Scan(&req.ID, &req.CreatedAt); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// GetByID loads the request with its requester and its listing.
func (r *RequestRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	return r.get(ctx, sqlinline.QSelectRequestByID, id)
}

// GetForUpdate is GetByID with the request row locked until the
// surrounding transaction ends.
func (r *RequestRepositoryPG) GetForUpdate(ctx context.Context, id int64) (*domain.Request, error) {
	return r.get(ctx, sqlinline.QSelectRequestForUpdate, id)
}

func (r *RequestRepositoryPG) get(ctx context.Context, query string, id int64) (*domain.Request, error) {
	var rs requestScan
	var us summaryScan
	if err := r.sql.QueryRow(ctx, query, id).Scan(append(rs.dest(), us.dest()...)...); err != nil {
		return nil, notFound(err)
	}
	req := rs.result()
	req.User = us.result(req.UserID)

	d, err := NewDonationRepository(r.sql).GetByID(ctx, req.DonationID)
	if err != nil {
		return nil, err
	}
	req.Donation = d
	return &req, nil
}

func (r *RequestRepositoryPG) Exists(ctx context.Context, userID, donationID int64) (bool, error) {
	var exists bool
	err := r.sql.QueryRow(ctx, sqlinline.QRequestExists, userID, donationID).Scan(&exists)
	return exists, err
}

func (r *RequestRepositoryPG) CountByDonation(ctx context.Context, donationID int64, status domain.RequestStatus) (int, error) {
	return r.count(ctx, sqlinline.QCountRequestsByDonation, donationID, string(status))
}

func (r *RequestRepositoryPG) CountPendingForDonor(ctx context.Context, donorID int64) (int, error) {
	return r.count(ctx, sqlinline.QCountPendingForDonor, donorID)
}

func (r *RequestRepositoryPG) CountPendingByUser(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, sqlinline.QCountPendingByUser, userID)
}

func (r *RequestRepositoryPG) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	if err := r.sql.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return int(n), nil
}

// ListByUser returns the user's requests with their listings.
func (r *RequestRepositoryPG) ListByUser(ctx context.Context, userID int64) ([]domain.Request, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRequestsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Request{}
	for rows.Next() {
		var rs requestScan
		var ds donationScan
		if err := rows.Scan(append(rs.dest(), ds.dest()...)...); err != nil {
			return nil, err
		}
		req := rs.result()
		d := ds.result()
		req.Donation = &d
		items = append(items, req)
	}
	return items, rows.Err()
}

// ListByDonor returns every request on the donor's listings with the requester.
func (r *RequestRepositoryPG) ListByDonor(ctx context.Context, donorID int64) ([]domain.Request, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRequestsByDonor, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Request{}
	for rows.Next() {
		var rs requestScan
		var us summaryScan
		if err := rows.Scan(append(rs.dest(), us.dest()...)...); err != nil {
			return nil, err
		}
		req := rs.result()
		req.User = us.result(req.UserID)
		items = append(items, req)
	}
	return items, rows.Err()
}

func (r *RequestRepositoryPG) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateRequestStatus, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RequestRepositoryPG) RejectPendingExcept(ctx context.Context, donationID, keepID int64) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QRejectPendingRequests, donationID, keepID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
