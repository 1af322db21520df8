// Package memstore keeps every repository in process memory. It backs
// STORE_DRIVER=memory and the workflow and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sharekindness/internal/domain"
)

type blacklistEntry struct {
	userID    int64
	expiresAt time.Time
}

type data struct {
	users     map[int64]domain.User
	donations map[int64]domain.Donation
	requests  map[int64]domain.Request
	blacklist map[string]blacklistEntry

	nextUser     int64
	nextDonation int64
	nextRequest  int64
}

func newData() *data {
	return &data{
		users:     map[int64]domain.User{},
		donations: map[int64]domain.Donation{},
		requests:  map[int64]domain.Request{},
		blacklist: map[string]blacklistEntry{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		v.Roles = append([]domain.Role(nil), v.Roles...)
		c.users[k] = v
	}
	for k, v := range d.donations {
		c.donations[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.blacklist {
		c.blacklist[k] = v
	}
	c.nextUser, c.nextDonation, c.nextRequest = d.nextUser, d.nextDonation, d.nextRequest
	return c
}

// Store implements domain.Store in memory.
type Store struct {
	mu   *sync.Mutex
	db   *data
	inTx bool
	now  func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{mu: &sync.Mutex{}, db: newData(), now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() domain.UserRepository         { return userRepo{s} }
func (s *Store) Donations() domain.DonationRepository { return donationRepo{s} }
func (s *Store) Requests() domain.RequestRepository   { return requestRepo{s} }
func (s *Store) Tokens() domain.TokenRepository       { return tokenRepo{s} }
func (s *Store) Stats() domain.StatsRepository        { return statsRepo{s} }

// InTx serializes fn against every other store call and restores the
// previous state when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.db.clone()
	tx := &Store{mu: s.mu, db: s.db, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.db = *snapshot
		return err
	}
	return nil
}

var _ domain.Store = (*Store)(nil)

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	defer r.s.lock()()
	verr := &domain.ValidationError{}
	for _, existing := range r.s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			verr.Add("email", "user with this email already exists.")
		}
		if existing.Username == u.Username {
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if verr.OrNil() != nil {
		return domain.Conflict(verr)
	}
	r.s.db.nextUser++
	now := r.s.now()
	u.ID = r.s.db.nextUser
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.Roles = append([]domain.Role(nil), u.Roles...)
	r.s.db.users[u.ID] = stored
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.db.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r userRepo) Update(_ context.Context, u *domain.User) error {
	defer r.s.lock()()
	if _, ok := r.s.db.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range r.s.db.users {
		if id != u.ID && existing.Username == u.Username {
			return domain.Conflict(domain.NewValidationError("username", "A user with that username already exists."))
		}
	}
	u.UpdatedAt = r.s.now()
	stored := *u
	stored.Roles = append([]domain.Role(nil), u.Roles...)
	r.s.db.users[u.ID] = stored
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	defer r.s.lock()()
	u, ok := r.s.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.s.now()
	r.s.db.users[id] = u
	return nil
}

func (r userRepo) SetVerified(_ context.Context, id int64, verified bool) error {
	defer r.s.lock()()
	u, ok := r.s.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsVerified = verified
	r.s.db.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.db.users, id)
	for did, d := range r.s.db.donations {
		if d.DonorID == id {
			r.s.deleteDonation(did)
		}
	}
	for rid, req := range r.s.db.requests {
		if req.UserID == id {
			delete(r.s.db.requests, rid)
		}
	}
	return nil
}

type donationRepo struct{ s *Store }

func (s *Store) withDonor(d domain.Donation) domain.Donation {
	if u, ok := s.db.users[d.DonorID]; ok {
		d.Donor = &u
	}
	return d
}

func (s *Store) deleteDonation(id int64) {
	delete(s.db.donations, id)
	for rid, req := range s.db.requests {
		if req.DonationID == id {
			delete(s.db.requests, rid)
		}
	}
}

func (r donationRepo) Create(_ context.Context, d *domain.Donation) error {
	defer r.s.lock()()
	if _, ok := r.s.db.users[d.DonorID]; !ok {
		return domain.ErrNotFound
	}
	r.s.db.nextDonation++
	d.ID = r.s.db.nextDonation
	d.CreatedAt = r.s.now()
	stored := *d
	stored.Donor = nil
	r.s.db.donations[d.ID] = stored
	*d = r.s.withDonor(stored)
	return nil
}

func (r donationRepo) GetByID(_ context.Context, id int64) (*domain.Donation, error) {
	defer r.s.lock()()
	d, ok := r.s.db.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d = r.s.withDonor(d)
	return &d, nil
}

func (r donationRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Donation, error) {
	return r.GetByID(ctx, id)
}

func (r donationRepo) List(_ context.Context, f domain.DonationFilter) ([]domain.Donation, error) {
	defer r.s.lock()()
	f = f.Normalize()
	var items []domain.Donation
	for _, d := range r.s.db.donations {
		if f.Matches(d) {
			items = append(items, r.s.withDonor(d))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if f.Offset >= len(items) {
		return []domain.Donation{}, nil
	}
	items = items[f.Offset:]
	if len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items, nil
}

func (r donationRepo) Update(_ context.Context, d *domain.Donation) error {
	defer r.s.lock()()
	existing, ok := r.s.db.donations[d.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored := *d
	stored.Donor = nil
	stored.DonorID = existing.DonorID
	stored.CreatedAt = existing.CreatedAt
	r.s.db.donations[d.ID] = stored
	return nil
}

func (r donationRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.db.donations[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.deleteDonation(id)
	return nil
}

func (r donationRepo) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, d := range r.s.db.donations {
		if d.Status == domain.DonationAvailable && d.CreatedAt.Before(cutoff) {
			d.Status = domain.DonationExpired
			r.s.db.donations[id] = d
			n++
		}
	}
	return n, nil
}

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, req *domain.Request) error {
	defer r.s.lock()()
	if _, ok := r.s.db.donations[req.DonationID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.db.requests {
		if existing.UserID == req.UserID && existing.DonationID == req.DonationID {
			return domain.ErrDuplicateRequest
		}
	}
	r.s.db.nextRequest++
	req.ID = r.s.db.nextRequest
	req.CreatedAt = r.s.now()
	stored := *req
	stored.User, stored.Donation = nil, nil
	r.s.db.requests[req.ID] = stored
	return nil
}

func (r requestRepo) GetByID(_ context.Context, id int64) (*domain.Request, error) {
	defer r.s.lock()()
	req, ok := r.s.db.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u, ok := r.s.db.users[req.UserID]; ok {
		req.User = &u
	}
	if d, ok := r.s.db.donations[req.DonationID]; ok {
		d = r.s.withDonor(d)
		req.Donation = &d
	}
	return &req, nil
}

func (r requestRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Request, error) {
	return r.GetByID(ctx, id)
}

func (r requestRepo) Exists(_ context.Context, userID, donationID int64) (bool, error) {
	defer r.s.lock()()
	for _, req := range r.s.db.requests {
		if req.UserID == userID && req.DonationID == donationID {
			return true, nil
		}
	}
	return false, nil
}

func (r requestRepo) CountByDonation(_ context.Context, donationID int64, status domain.RequestStatus) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, req := range r.s.db.requests {
		if req.DonationID == donationID && (status == "" || req.Status == status) {
			n++
		}
	}
	return n, nil
}

func (s *Store) sortedRequests(keep func(domain.Request) bool) []domain.Request {
	items := []domain.Request{}
	for _, req := range s.db.requests {
		if keep(req) {
			items = append(items, req)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items
}

func (r requestRepo) ListByUser(_ context.Context, userID int64) ([]domain.Request, error) {
	defer r.s.lock()()
	items := r.s.sortedRequests(func(req domain.Request) bool { return req.UserID == userID })
	for i := range items {
		if d, ok := r.s.db.donations[items[i].DonationID]; ok {
			d = r.s.withDonor(d)
			items[i].Donation = &d
		}
	}
	return items, nil
}

func (r requestRepo) ListByDonor(_ context.Context, donorID int64) ([]domain.Request, error) {
	defer r.s.lock()()
	items := r.s.sortedRequests(func(req domain.Request) bool {
		d, ok := r.s.db.donations[req.DonationID]
		return ok && d.DonorID == donorID
	})
	for i := range items {
		if u, ok := r.s.db.users[items[i].UserID]; ok {
			items[i].User = &u
		}
	}
	return items, nil
}

func (r requestRepo) UpdateStatus(_ context.Context, id int64, status domain.RequestStatus) error {
	defer r.s.lock()()
	req, ok := r.s.db.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	req.Status = status
	r.s.db.requests[id] = req
	return nil
}

func (r requestRepo) RejectPendingExcept(_ context.Context, donationID, keepID int64) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, req := range r.s.db.requests {
		if req.DonationID == donationID && id != keepID && req.Status == domain.RequestPending {
			req.Status = domain.RequestRejected
			r.s.db.requests[id] = req
			n++
		}
	}
	return n, nil
}

func (r requestRepo) CountPendingForDonor(_ context.Context, donorID int64) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, req := range r.s.db.requests {
		d, ok := r.s.db.donations[req.DonationID]
		if ok && d.DonorID == donorID && req.Status == domain.RequestPending {
			n++
		}
	}
	return n, nil
}

func (r requestRepo) CountPendingByUser(_ context.Context, userID int64) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, req := range r.s.db.requests {
		if req.UserID == userID && req.Status == domain.RequestPending {
			n++
		}
	}
	return n, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Blacklist(_ context.Context, jti string, userID int64, expiresAt time.Time) (bool, error) {
	defer r.s.lock()()
	if _, ok := r.s.db.blacklist[jti]; ok {
		return false, nil
	}
	r.s.db.blacklist[jti] = blacklistEntry{userID: userID, expiresAt: expiresAt}
	return true, nil
}

func (r tokenRepo) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	defer r.s.lock()()
	_, ok := r.s.db.blacklist[jti]
	return ok, nil
}

func (r tokenRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for jti, e := range r.s.db.blacklist {
		if e.expiresAt.Before(now) {
			delete(r.s.db.blacklist, jti)
			n++
		}
	}
	return n, nil
}

type statsRepo struct{ s *Store }

func (r statsRepo) Summary(_ context.Context) (*domain.Stats, error) {
	defer r.s.lock()()
	st := &domain.Stats{TotalUsers: int64(len(r.s.db.users)), TotalDonations: int64(len(r.s.db.donations))}
	for _, d := range r.s.db.donations {
		switch d.Status {
		case domain.DonationAvailable:
			st.AvailableItems += int64(d.Quantity)
		case domain.DonationClaimed:
			st.ClaimedDonations++
		}
	}
	for _, req := range r.s.db.requests {
		if req.Status == domain.RequestApproved || req.Status == domain.RequestClaimed {
			st.ApprovedRequests++
			st.ItemsShared += int64(req.RequestedQuantity)
		}
	}
	return st, nil
}
