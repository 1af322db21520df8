package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharekindness/internal/adapter/memstore"
	"sharekindness/internal/domain"
)

type fixture struct {
	svc   *Service
	store *memstore.Store
	donor int64
	alice int64
	bob   int64
	clock time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{clock: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	f.store = memstore.New().WithClock(func() time.Time { return f.clock })
	f.svc = NewService(f.store, zerolog.Nop(), append([]Option{WithClock(func() time.Time { return f.clock })}, opts...)...)
	f.donor = f.user(t, "dina")
	f.alice = f.user(t, "alice")
	f.bob = f.user(t, "bob")
	return f
}

func (f *fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Roles: domain.DefaultRoles}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *fixture) donation(t *testing.T, qty int) *domain.Donation {
	t.Helper()
	d, err := f.svc.CreateDonation(context.Background(), f.donor, domain.DonationInput{
		ItemName:    strPtr("Rice"),
		Description: strPtr("5kg bag"),
		Category:    strPtr("food"),
		Quantity:    &qty,
	})
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string { return &s }

func TestCreateDonationPopulatesDonor(t *testing.T) {
	f := newFixture(t)
	d := f.donation(t, 2)
	assert.Equal(t, domain.CategoryFood, d.Category)
	assert.Equal(t, domain.DonationAvailable, d.Status)
	require.NotNil(t, d.Donor)
	assert.Equal(t, "dina", d.Donor.Username)
}

func TestCreateDonationValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateDonation(context.Background(), f.donor, domain.DonationInput{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "item_name")
}

func TestUpdateDonationOnlyByDonor(t *testing.T) {
	f := newFixture(t)
	d := f.donation(t, 1)
	_, err := f.svc.UpdateDonation(context.Background(), f.alice, d.ID, domain.DonationInput{ItemName: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.UpdateDonation(context.Background(), f.donor, d.ID, domain.DonationInput{ItemName: strPtr("Brown rice")})
	require.NoError(t, err)
	assert.Equal(t, "Brown rice", got.ItemName)
}

func TestCloseDonationRejectsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 2)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)

	got, err := f.svc.UpdateDonation(ctx, f.donor, d.ID, domain.DonationInput{Status: strPtr("CLOSED")})
	require.NoError(t, err)
	assert.Equal(t, domain.DonationClosed, got.Status)

	r, err = f.svc.GetRequest(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, r.Status)
}

func TestDeleteDonation(t *testing.T) {
	f := newFixture(t)
	d := f.donation(t, 1)
	_, err := f.svc.DeleteDonation(context.Background(), f.alice, d.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.DeleteDonation(context.Background(), f.donor, d.ID)
	require.NoError(t, err)
	_, err = f.svc.GetDonation(context.Background(), d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitRequestRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 2)

	_, err := f.svc.SubmitRequest(ctx, f.donor, d.ID, 1, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SubmitRequest(ctx, f.alice, d.ID, 3, "")
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	_, err = f.svc.SubmitRequest(ctx, f.alice, d.ID, 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 2, "  for my family ")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, r.Status)
	assert.Equal(t, "for my family", r.Comments)

	_, err = f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	_, err = f.svc.SubmitRequest(ctx, f.alice, 999, 1, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitRequestLimitClosesDonation(t *testing.T) {
	f := newFixture(t, WithMaxRequests(2))
	ctx := context.Background()
	d := f.donation(t, 5)
	carol := f.user(t, "carol")

	_, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitRequest(ctx, f.bob, d.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitRequest(ctx, carol, d.ID, 1, "")
	assert.ErrorIs(t, err, domain.ErrRequestLimitReached)

	got, err := f.svc.GetDonation(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationClosed, got.Status)
}

func TestApproveReservesAndRejectsOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	ra, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)
	rb, err := f.svc.SubmitRequest(ctx, f.bob, d.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(ctx, f.alice, ra.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	approved, err := f.svc.Decide(ctx, f.donor, "approve", ra.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, approved.Status)
	assert.Equal(t, domain.DonationReserved, approved.Donation.Status)
	assert.Equal(t, 0, approved.Donation.Quantity)

	other, err := f.svc.GetRequest(ctx, f.bob, rb.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, other.Status)

	_, err = f.svc.Decide(ctx, f.donor, "approve", ra.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestDecideUnknownAction(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Decide(context.Background(), f.donor, "maybe", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRejectRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)

	got, err := f.svc.Decide(ctx, f.donor, "REJECT", r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, got.Status)
	assert.Equal(t, domain.DonationAvailable, got.Donation.Status)
}

func TestClaimFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.ClaimRequest(ctx, f.alice, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	_, err = f.svc.ApproveRequest(ctx, f.donor, r.ID)
	require.NoError(t, err)

	_, err = f.svc.ClaimRequest(ctx, f.bob, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	claimed, err := f.svc.ClaimRequest(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestClaimed, claimed.Status)
	assert.Equal(t, domain.DonationClaimed, claimed.Donation.Status)

	_, err = f.svc.ClaimRequest(ctx, f.alice, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestApproveRejectsOversizedRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 2)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 2, "")
	require.NoError(t, err)

	_, err = f.svc.UpdateDonation(ctx, f.donor, d.ID, domain.DonationInput{Quantity: intPtr(1)})
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(ctx, f.donor, r.ID)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	got, err := f.svc.GetRequest(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, got.Status)
	assert.Equal(t, 1, got.Donation.Quantity)
}

func intPtr(v int) *int { return &v }

func TestDashboardAndNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 3)
	_ = f.donation(t, 1)
	_, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "please")
	require.NoError(t, err)
	_, err = f.svc.SubmitRequest(ctx, f.bob, d.ID, 2, "")
	require.NoError(t, err)

	dash, err := f.svc.Dashboard(ctx, f.donor)
	require.NoError(t, err)
	require.Len(t, dash.Donations, 2)
	var withRequests int
	for _, item := range dash.Donations {
		if item.Donation.ID == d.ID {
			withRequests = len(item.Requests)
			for _, r := range item.Requests {
				require.NotNil(t, r.User)
			}
		} else {
			assert.NotNil(t, item.Requests)
			assert.Empty(t, item.Requests)
		}
	}
	assert.Equal(t, 2, withRequests)
	assert.Empty(t, dash.Requests)

	n, err := f.svc.Notifications(ctx, f.donor)
	require.NoError(t, err)
	assert.Equal(t, 2, n.PendingRequests)
	assert.Equal(t, 0, n.PendingDonations)

	n, err = f.svc.Notifications(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n.PendingDonations)

	aliceDash, err := f.svc.Dashboard(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, aliceDash.Requests, 1)
	assert.Equal(t, "Rice", aliceDash.Requests[0].Donation.ItemName)
}

func TestGetRequestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.GetRequest(ctx, f.donor, r.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetRequest(ctx, f.bob, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireDonations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.donation(t, 1)
	f.clock = f.clock.Add(40 * 24 * time.Hour)
	fresh := f.donation(t, 1)

	n, err := f.svc.ExpireDonations(ctx, f.clock, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.svc.GetDonation(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationExpired, got.Status)
	got, err = f.svc.GetDonation(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationAvailable, got.Status)

	n, err = f.svc.ExpireDonations(ctx, f.clock, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 2)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 2, "")
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, f.donor, r.ID)
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalUsers)
	assert.Equal(t, int64(1), st.TotalDonations)
	assert.Equal(t, int64(1), st.ApprovedRequests)
	assert.Equal(t, int64(2), st.ItemsShared)
}

// staleStore serves snapshots of some requests from plain reads, the way a
// transaction that started before a concurrent commit would see them.
type staleStore struct {
	domain.Store
	stale map[int64]domain.Request
}

func (s staleStore) Requests() domain.RequestRepository {
	return staleRequests{RequestRepository: s.Store.Requests(), stale: s.stale}
}

func (s staleStore) InTx(ctx context.Context, fn func(domain.Store) error) error {
	return s.Store.InTx(ctx, func(tx domain.Store) error {
		return fn(staleStore{Store: tx, stale: s.stale})
	})
}

type staleRequests struct {
	domain.RequestRepository
	stale map[int64]domain.Request
}

func (r staleRequests) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	if req, ok := r.stale[id]; ok {
		return &req, nil
	}
	return r.RequestRepository.GetByID(ctx, id)
}

func (f *fixture) snapshot(t *testing.T, ids ...int64) map[int64]domain.Request {
	t.Helper()
	out := make(map[int64]domain.Request, len(ids))
	for _, id := range ids {
		r, err := f.store.Requests().GetByID(context.Background(), id)
		require.NoError(t, err)
		out[id] = *r
	}
	return out
}

func TestApproveRereadsRequestAfterLockingListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 5)
	ra, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 2, "")
	require.NoError(t, err)
	rb, err := f.svc.SubmitRequest(ctx, f.bob, d.ID, 2, "")
	require.NoError(t, err)

	before := f.snapshot(t, rb.ID)
	_, err = f.svc.ApproveRequest(ctx, f.donor, ra.ID)
	require.NoError(t, err)

	late := NewService(staleStore{Store: f.store, stale: before}, zerolog.Nop())
	_, err = late.ApproveRequest(ctx, f.donor, rb.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	bob, err := f.svc.GetRequest(ctx, f.bob, rb.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, bob.Status)
	got, err := f.svc.GetDonation(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, domain.DonationAvailable, got.Status)
}

func TestClaimRereadsRequestAfterLockingListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, f.donor, r.ID)
	require.NoError(t, err)

	before := f.snapshot(t, r.ID)
	_, err = f.svc.ClaimRequest(ctx, f.alice, r.ID)
	require.NoError(t, err)

	late := NewService(staleStore{Store: f.store, stale: before}, zerolog.Nop())
	_, err = late.ClaimRequest(ctx, f.alice, r.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestDecideChecksOwnershipOnLockedListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.donation(t, 1)
	r, err := f.svc.SubmitRequest(ctx, f.alice, d.ID, 1, "")
	require.NoError(t, err)

	_, err = f.svc.RejectRequest(ctx, f.bob, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := f.svc.GetRequest(ctx, f.alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, got.Status)
}
