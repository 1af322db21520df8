package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharekindness/internal/adapter/memstore"
	"sharekindness/internal/domain"
	"sharekindness/internal/workflow"
)

func TestSweepExpiresStaleDonations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := memstore.New().WithClock(func() time.Time { return now.Add(-48 * time.Hour) })
	svc := workflow.NewService(store, zerolog.Nop(), workflow.WithClock(func() time.Time { return now }))

	donor := &domain.User{Username: "donor", Email: "donor@example.com", Roles: []domain.Role{domain.RoleDonor}}
	require.NoError(t, store.Users().Create(ctx, donor))
	name, category, qty := "Rice", string(domain.CategoryFood), 2
	d, err := svc.CreateDonation(ctx, donor.ID, domain.DonationInput{ItemName: &name, Category: &category, Quantity: &qty})
	require.NoError(t, err)

	sw := &sweeper{svc: svc, logger: zerolog.Nop(), ttl: 24 * time.Hour}
	sw.sweep(ctx)

	got, err := svc.GetDonation(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationExpired, got.Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := workflow.NewService(memstore.New(), zerolog.Nop())
	sw := &sweeper{svc: svc, logger: zerolog.Nop(), interval: time.Hour}
	assert.ErrorIs(t, sw.Run(ctx), context.Canceled)
}
