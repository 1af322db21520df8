package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sharekindness/internal/adapter/memstore"
	"sharekindness/internal/domain"
	"sharekindness/internal/middleware"
)

func newTestService(t *testing.T, cfg Config) (*Service, *domain.User) {
	t.Helper()
	cfg.Secret = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	svc := NewService(memstore.New(), cfg, zerolog.Nop())
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "dina",
		Email:    "dina@example.com",
		Password: "s3cretpass",
		Country:  "id",
	})
	require.NoError(t, err)
	return svc, u
}

func TestRegisterDefaults(t *testing.T) {
	_, u := newTestService(t, Config{})
	assert.Equal(t, domain.DefaultRoles, u.Roles)
	assert.Equal(t, "ID", u.Country)
	assert.False(t, u.IsVerified)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@b.co", Password: "longenough"}, "username"},
		{"bad email", RegisterInput{Username: "a", Email: "nope", Password: "longenough"}, "email"},
		{"short password", RegisterInput{Username: "a", Email: "a@b.co", Password: "short"}, "password"},
		{"bad role", RegisterInput{Username: "a", Email: "a@b.co", Password: "longenough", Roles: []string{"ADMIN"}}, "roles"},
		{"country name instead of code", RegisterInput{Username: "a", Email: "a@b.co", Password: "longenough", Country: "Nigeria"}, "country"},
		{"city too long", RegisterInput{Username: "a", Email: "a@b.co", Password: "longenough", City: strings.Repeat("c", 80)}, "city"},
		{"state too long", RegisterInput{Username: "a", Email: "a@b.co", Password: "longenough", State: strings.Repeat("s", 80)}, "state"},
		{"username too long", RegisterInput{Username: strings.Repeat("u", 151), Email: "a@b.co", Password: "longenough"}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, err := svc.Register(context.Background(), RegisterInput{Username: "other", Email: "DINA@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, u := newTestService(t, Config{})
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "dina@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cretpass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, pair, err := svc.Login(ctx, "Dina@Example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := middleware.VerifyJWT(svc.Secret(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, middleware.TokenAccess, claims.Type)
	claims, err = middleware.VerifyJWT(svc.Secret(), pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, middleware.TokenRefresh, claims.Type)
	assert.NotEmpty(t, claims.JTI)
}

func TestRefreshRotationBlacklistsOldToken(t *testing.T) {
	svc, u := newTestService(t, Config{RotateRefreshTokens: true, BlacklistAfterRotation: true})
	ctx := context.Background()
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, next.Access)
	assert.NotEmpty(t, next.Refresh)

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Refresh(ctx, next.Refresh)
	assert.NoError(t, err)
}

func TestRefreshWithoutRotation(t *testing.T) {
	svc, u := newTestService(t, Config{})
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.Empty(t, next.Refresh)

	_, err = svc.Refresh(context.Background(), pair.Access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefreshExpired(t *testing.T) {
	svc, u := newTestService(t, Config{RefreshTTL: time.Hour})
	now := time.Now()
	svc.WithClock(func() time.Time { return now })
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = svc.Refresh(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	svc, u := newTestService(t, Config{})
	ctx := context.Background()
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Logout(ctx, u.ID, ""), domain.ErrValidation)
	assert.ErrorIs(t, svc.Logout(ctx, u.ID+1, pair.Refresh), domain.ErrValidation)
	require.NoError(t, svc.Logout(ctx, u.ID, pair.Refresh))

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.Logout(ctx, u.ID, pair.Refresh), domain.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	svc, u := newTestService(t, Config{})
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, "wrong-pass", "newpassword", "newpassword")
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = svc.ChangePassword(ctx, u.ID, "s3cretpass", "newpassword", "different")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "s3cretpass", "newpassword", "newpassword"))
	_, _, err = svc.Login(ctx, "dina@example.com", "newpassword")
	assert.NoError(t, err)
}

// lateTokens answers every blacklist lookup with "not revoked", as a refresh
// racing another one with the same token would observe.
type lateTokens struct{ domain.TokenRepository }

func (lateTokens) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

type lateTokenStore struct{ domain.Store }

func (s lateTokenStore) Tokens() domain.TokenRepository {
	return lateTokens{s.Store.Tokens()}
}

func TestConcurrentRefreshRotatesOnce(t *testing.T) {
	store := memstore.New()
	svc := NewService(lateTokenStore{store}, Config{
		Secret:                 "test-secret",
		BcryptCost:             bcrypt.MinCost,
		RotateRefreshTokens:    true,
		BlacklistAfterRotation: true,
	}, zerolog.Nop())
	u, err := svc.Register(context.Background(), RegisterInput{Username: "dina", Email: "dina@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	const racers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		issued int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), pair.Refresh)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			mu.Lock()
			issued++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, issued)
}

func TestLogoutTwiceFails(t *testing.T) {
	svc, u := newTestService(t, Config{})
	ctx := context.Background()
	pair, err := svc.Issue(u.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID, pair.Refresh))
	err = svc.Logout(ctx, u.ID, pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
