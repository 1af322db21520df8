// Package workflow runs the donation and request lifecycle over a
// domain.Store. Multi-row changes happen inside a single transaction.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sharekindness/internal/domain"
)

// Service orchestrates listings and requests.
type Service struct {
	store       domain.Store
	logger      zerolog.Logger
	maxRequests int
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMaxRequests sets how many requests a listing may collect.
func WithMaxRequests(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRequests = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store domain.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		logger:      logger,
		maxRequests: domain.DefaultMaxRequestsPerDonation,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for account level operations.
func (s *Service) Store() domain.Store { return s.store }

// CreateDonation validates and stores a new listing for donorID.
func (s *Service) CreateDonation(ctx context.Context, donorID int64, in domain.DonationInput) (*domain.Donation, error) {
	d, err := domain.ValidateDonationInput(donorID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Donations().Create(ctx, &d); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	s.logger.Info().Int64("donation_id", d.ID).Int64("donor_id", donorID).Msg("donation created")
	return s.store.Donations().GetByID(ctx, d.ID)
}

// UpdateDonation applies a partial update by the listing's donor. Closing a
// listing rejects its pending requests.
func (s *Service) UpdateDonation(ctx context.Context, userID, id int64, in domain.DonationInput) (*domain.Donation, error) {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		d, err := tx.Donations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.DonorID != userID {
			return fmt.Errorf("%w: only the donor can edit this donation", domain.ErrForbidden)
		}
		before := d.Status
		if err := domain.ApplyDonationUpdate(d, in); err != nil {
			return err
		}
		if err := tx.Donations().Update(ctx, d); err != nil {
			return err
		}
		if before != domain.DonationClosed && d.Status == domain.DonationClosed {
			n, err := tx.Requests().RejectPendingExcept(ctx, d.ID, 0)
			if err != nil {
				return err
			}
			s.logger.Info().Int64("donation_id", d.ID).Int64("rejected", n).Msg("donation closed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Donations().GetByID(ctx, id)
}

// DeleteDonation removes a listing owned by userID and returns what was
// removed so the caller can drop its image.
func (s *Service) DeleteDonation(ctx context.Context, userID, id int64) (*domain.Donation, error) {
	d, err := s.store.Donations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.DonorID != userID {
		return nil, fmt.Errorf("%w: only the donor can delete this donation", domain.ErrForbidden)
	}
	if err := s.store.Donations().Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("donation_id", id).Msg("donation deleted")
	return d, nil
}

func (s *Service) GetDonation(ctx context.Context, id int64) (*domain.Donation, error) {
	return s.store.Donations().GetByID(ctx, id)
}

func (s *Service) ListDonations(ctx context.Context, f domain.DonationFilter) ([]domain.Donation, error) {
	return s.store.Donations().List(ctx, f.Normalize())
}

// SubmitRequest files a request for qty items of a listing. When the listing
// already holds the maximum number of requests it is closed and
// ErrRequestLimitReached is returned.
func (s *Service) SubmitRequest(ctx context.Context, userID, donationID int64, qty int, comments string) (*domain.Request, error) {
	if err := domain.ValidateComments(comments); err != nil {
		return nil, err
	}
	var (
		created *domain.Request
		limited bool
	)
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		d, err := tx.Donations().GetForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		exists, err := tx.Requests().Exists(ctx, userID, donationID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRequest
		}
		count, err := tx.Requests().CountByDonation(ctx, donationID, "")
		if err != nil {
			return err
		}
		err = domain.CheckNewRequest(*d, userID, qty, count, s.maxRequests)
		if errors.Is(err, domain.ErrRequestLimitReached) {
			if cerr := domain.Close(d); cerr != nil {
				return cerr
			}
			limited = true
			return tx.Donations().Update(ctx, d)
		}
		if err != nil {
			return err
		}
		r := domain.NewRequest(*d, userID, qty, comments)
		if err := tx.Requests().Create(ctx, &r); err != nil {
			return err
		}
		created = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limited {
		s.logger.Info().Int64("donation_id", donationID).Msg("request limit reached, donation closed")
		return nil, domain.ErrRequestLimitReached
	}
	s.logger.Info().Int64("request_id", created.ID).Int64("donation_id", donationID).Int64("user_id", userID).Msg("request submitted")
	return s.store.Requests().GetByID(ctx, created.ID)
}

// ApproveRequest approves a pending request on one of donorID's listings and
// rejects the listing's other pending requests.
func (s *Service) ApproveRequest(ctx context.Context, donorID, requestID int64) (*domain.Request, error) {
	err := s.decide(ctx, donorID, requestID, func(tx domain.Store, d *domain.Donation, r *domain.Request) error {
		if err := domain.Approve(d, r); err != nil {
			return err
		}
		if err := tx.Donations().Update(ctx, d); err != nil {
			return err
		}
		if err := tx.Requests().UpdateStatus(ctx, r.ID, r.Status); err != nil {
			return err
		}
		n, err := tx.Requests().RejectPendingExcept(ctx, d.ID, r.ID)
		if err != nil {
			return err
		}
		s.logger.Info().Int64("request_id", r.ID).Int64("donation_id", d.ID).Int64("auto_rejected", n).Msg("request approved")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Requests().GetByID(ctx, requestID)
}

// RejectRequest rejects a pending request on one of donorID's listings.
func (s *Service) RejectRequest(ctx context.Context, donorID, requestID int64) (*domain.Request, error) {
	err := s.decide(ctx, donorID, requestID, func(tx domain.Store, d *domain.Donation, r *domain.Request) error {
		if err := domain.Reject(d, r); err != nil {
			return err
		}
		s.logger.Info().Int64("request_id", r.ID).Msg("request rejected")
		return tx.Requests().UpdateStatus(ctx, r.ID, r.Status)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Requests().GetByID(ctx, requestID)
}

func (s *Service) decide(ctx context.Context, donorID, requestID int64, fn func(domain.Store, *domain.Donation, *domain.Request) error) error {
	return s.store.InTx(ctx, func(tx domain.Store) error {
		d, r, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if d.DonorID != donorID {
			return domain.ErrNotFound
		}
		return fn(tx, d, r)
	})
}

// lockRequest locks the request's listing and then the request itself.
// Every status change of a request happens under its listing's lock, so the
// request is read again once that lock is held.
func lockRequest(ctx context.Context, tx domain.Store, requestID int64) (*domain.Donation, *domain.Request, error) {
	peek, err := tx.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	d, err := tx.Donations().GetForUpdate(ctx, peek.DonationID)
	if err != nil {
		return nil, nil, err
	}
	r, err := tx.Requests().GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return d, r, nil
}

// Action names accepted by Decide.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Decide dispatches a dashboard decision.
func (s *Service) Decide(ctx context.Context, donorID int64, action string, requestID int64) (*domain.Request, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionApprove:
		return s.ApproveRequest(ctx, donorID, requestID)
	case ActionReject:
		return s.RejectRequest(ctx, donorID, requestID)
	}
	return nil, domain.NewValidationError("action", "Invalid action.")
}

// ClaimRequest records pick-up of an approved request by its requester.
func (s *Service) ClaimRequest(ctx context.Context, userID, requestID int64) (*domain.Request, error) {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		d, r, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		approved, err := tx.Requests().CountByDonation(ctx, d.ID, domain.RequestApproved)
		if err != nil {
			return err
		}
		outstanding := approved
		if r.Status == domain.RequestApproved {
			outstanding--
		}
		if err := domain.Claim(d, r, userID, outstanding); err != nil {
			return err
		}
		if err := tx.Requests().UpdateStatus(ctx, r.ID, r.Status); err != nil {
			return err
		}
		return tx.Donations().Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", requestID).Int64("user_id", userID).Msg("request claimed")
	return s.store.Requests().GetByID(ctx, requestID)
}

// ListRequests returns the user's own requests.
func (s *Service) ListRequests(ctx context.Context, userID int64) ([]domain.Request, error) {
	return s.store.Requests().ListByUser(ctx, userID)
}

// GetRequest returns a request visible to userID as requester or donor.
func (s *Service) GetRequest(ctx context.Context, userID, id int64) (*domain.Request, error) {
	r, err := s.store.Requests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID && (r.Donation == nil || r.Donation.DonorID != userID) {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Dashboard loads the user's listings with their requests and the user's own
// requests.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*domain.Dashboard, error) {
	var (
		donations []domain.Donation
		received  []domain.Request
		sent      []domain.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = s.store.Donations().List(gctx, domain.DonationFilter{DonorID: userID, Limit: domain.MaxListLimit})
		return err
	})
	g.Go(func() error {
		var err error
		received, err = s.store.Requests().ListByDonor(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sent, err = s.store.Requests().ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	byDonation := make(map[int64][]domain.Request, len(donations))
	for _, r := range received {
		byDonation[r.DonationID] = append(byDonation[r.DonationID], r)
	}
	out := &domain.Dashboard{
		Donations: make([]domain.DonationWithRequests, 0, len(donations)),
		Requests:  sent,
	}
	for _, d := range donations {
		reqs := byDonation[d.ID]
		if reqs == nil {
			reqs = []domain.Request{}
		}
		out.Donations = append(out.Donations, domain.DonationWithRequests{Donation: d, Requests: reqs})
	}
	return out, nil
}

// Notifications counts pending requests on the user's listings and the
// user's own pending requests.
func (s *Service) Notifications(ctx context.Context, userID int64) (*domain.Notifications, error) {
	var n domain.Notifications
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		n.PendingRequests, err = s.store.Requests().CountPendingForDonor(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		n.PendingDonations, err = s.store.Requests().CountPendingByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &n, nil
}

// ExpireDonations moves available listings older than ttl to EXPIRED.
func (s *Service) ExpireDonations(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	n, err := s.store.Donations().ExpireBefore(ctx, now.Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("expire donations: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("stale donations expired")
	}
	return n, nil
}

// PurgeTokens drops blacklist entries whose tokens have expired anyway.
func (s *Service) PurgeTokens(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.Tokens().PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return n, nil
}

func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats().Summary(ctx)
}

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }
