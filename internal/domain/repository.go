package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	// Create inserts u and fills ID and timestamps. A taken email or username
	// yields a *ValidationError naming the field.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetVerified(ctx context.Context, id int64, verified bool) error
	Delete(ctx context.Context, id int64) error
}

// DonationRepository handles listing persistence. Reads populate Donor.
type DonationRepository interface {
	Create(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id int64) (*Donation, error)
	// GetForUpdate locks the row for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, id int64) (*Donation, error)
	List(ctx context.Context, f DonationFilter) ([]Donation, error)
	Update(ctx context.Context, d *Donation) error
	Delete(ctx context.Context, id int64) error
	// ExpireBefore moves AVAILABLE listings created before cutoff to EXPIRED.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RequestRepository handles request persistence.
type RequestRepository interface {
	// Create inserts r; a second request by the same user for the same
	// donation yields ErrDuplicateRequest.
	Create(ctx context.Context, r *Request) error
	// GetByID populates User and Donation (with its Donor).
	GetByID(ctx context.Context, id int64) (*Request, error)
	// GetForUpdate is GetByID with the request row locked for the rest of the
	// surrounding transaction.
	GetForUpdate(ctx context.Context, id int64) (*Request, error)
	Exists(ctx context.Context, userID, donationID int64) (bool, error)
	CountByDonation(ctx context.Context, donationID int64, status RequestStatus) (int, error)
	// ListByUser returns the user's requests with Donation populated.
	ListByUser(ctx context.Context, userID int64) ([]Request, error)
	// ListByDonor returns requests on the donor's listings with User populated.
	ListByDonor(ctx context.Context, donorID int64) ([]Request, error)
	UpdateStatus(ctx context.Context, id int64, status RequestStatus) error
	RejectPendingExcept(ctx context.Context, donationID, keepID int64) (int64, error)
	CountPendingForDonor(ctx context.Context, donorID int64) (int, error)
	CountPendingByUser(ctx context.Context, userID int64) (int, error)
}

// TokenRepository keeps the refresh-token blacklist.
type TokenRepository interface {
	// Blacklist revokes jti and reports whether this call revoked it; false
	// means it was already revoked.
	Blacklist(ctx context.Context, jti string, userID int64, expiresAt time.Time) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// StatsRepository computes public impact counters.
type StatsRepository interface {
	Summary(ctx context.Context) (*Stats, error)
}

// Store groups the repositories. InTx runs fn against a store bound to a
// single transaction; an error from fn rolls everything back.
type Store interface {
	Users() UserRepository
	Donations() DonationRepository
	Requests() RequestRepository
	Tokens() TokenRepository
	Stats() StatsRepository
	InTx(ctx context.Context, fn func(Store) error) error
}
