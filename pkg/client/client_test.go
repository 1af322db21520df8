package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080/api")
	assert.Error(t, err)
}

func TestRefreshAndRetryOnce(t *testing.T) {
	var refreshes, profileCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt32(&refreshes, 1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "r1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "a2", "refresh": "r2"})
		case "/api/user/profile/":
			atomic.AddInt32(&profileCalls, 1)
			if r.Header.Get("Authorization") != "Bearer a2" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"expired","code":"unauthorized"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(User{ID: 1, Username: "dina"})
		}
	}))
	defer srv.Close()

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "a1", Refresh: "r1"}))
	c, err := New(srv.URL, WithTokenStore(tokens))
	require.NoError(t, err)

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dina", u.Username)
	assert.EqualValues(t, 1, refreshes)
	assert.EqualValues(t, 2, profileCalls)

	tok, _ := tokens.Load()
	assert.Equal(t, Tokens{Access: "a2", Refresh: "r2"}, tok)
}

func TestSessionExpiredClearsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "a1", Refresh: "r1"}))
	c, err := New(srv.URL, WithTokenStore(tokens))
	require.NoError(t, err)

	_, err = c.Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	tok, _ := tokens.Load()
	assert.Equal(t, Tokens{}, tok)

	_, err = c.Notifications(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation failed","code":"validation_error","fields":{"quantity":"bad"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.GetDonation(context.Background(), 4)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "bad", apiErr.Fields["quantity"])
}

func TestLocalFormChecks(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	ctx := context.Background()

	var formErr *FormError
	_, err = c.CreateRequest(ctx, RequestInput{DonationID: 1, RequestedQuantity: 3, Available: 2})
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "requested_quantity")

	long := ""
	for i := 0; i < 51; i++ {
		long += "word "
	}
	_, err = c.CreateRequest(ctx, RequestInput{DonationID: 1, RequestedQuantity: 1, Comments: long})
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "comments")

	_, err = c.Register(ctx, RegisterInput{Email: "x@example.com"})
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "username")
	assert.Contains(t, formErr.Fields, "password")

	_, err = c.CreateDonation(ctx, DonationInput{})
	require.ErrorAs(t, err, &formErr)
	assert.Len(t, formErr.Fields, 3)

	err = c.ChangePassword(ctx, "old", "new-pass-1", "new-pass-2")
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "confirm_password")

	_, err = c.Decide(ctx, "archive", 1)
	require.ErrorAs(t, err, &formErr)
}

func TestBoltTokenStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBoltTokenStore(path)
	require.NoError(t, err)

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{}, tok)
	require.NoError(t, store.Save(Tokens{Access: "a", Refresh: "r"}))
	require.NoError(t, store.Close())

	store, err = OpenBoltTokenStore(path)
	require.NoError(t, err)
	defer store.Close()
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a", Refresh: "r"}, tok)

	require.NoError(t, store.Clear())
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{}, tok)
}
