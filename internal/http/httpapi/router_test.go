package httpapi_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharekindness/internal/domain"
	"sharekindness/internal/http/httpapi/apitest"
	"sharekindness/internal/infra"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")

type apiClient struct {
	t     *testing.T
	srv   *apitest.Server
	token string
}

func (c apiClient) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c apiClient) send(req *http.Request) (*http.Response, map[string]any) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (c apiClient) list(path string) []map[string]any {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.srv.URL+path, nil)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var out []map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func id(v any) int64 { return int64(v.(float64)) }

func newClients(t *testing.T) (*apitest.Server, apiClient, apiClient) {
	srv := apitest.New(t)
	_, donorPair := srv.User(t, "dina")
	_, recipientPair := srv.User(t, "rani")
	return srv, apiClient{t: t, srv: srv, token: donorPair.Access}, apiClient{t: t, srv: srv, token: recipientPair.Access}
}

func TestHealthAndDocs(t *testing.T) {
	srv := apitest.New(t)
	anon := apiClient{t: t, srv: srv}
	resp, body := anon.do(http.MethodGet, "/v1/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = anon.do(http.MethodGet, "/v1/openapi.json", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3.0.3", body["openapi"])
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	srv := apitest.New(t)
	anon := apiClient{t: t, srv: srv}

	resp, body := anon.do(http.MethodPost, "/api/register/", map[string]any{
		"username": "dina", "email": "dina@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully!", body["message"])
	user := body["user"].(map[string]any)
	assert.ElementsMatch(t, []any{"DONOR", "RECIPIENT"}, user["roles"])

	resp, body = anon.do(http.MethodPost, "/api/register", map[string]any{
		"username": "other", "email": "DINA@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fields"], "email")

	resp, _ = anon.do(http.MethodPost, "/api/login/", map[string]any{"email": "dina@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = anon.do(http.MethodPost, "/api/login/", map[string]any{"email": "dina@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful!", body["message"])
	refresh := body["refresh"].(string)
	authed := apiClient{t: t, srv: srv, token: body["access"].(string)}

	resp, body = anon.do(http.MethodPost, "/api/token/refresh/", map[string]any{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := body["refresh"].(string)
	assert.NotEmpty(t, body["access"])

	resp, _ = anon.do(http.MethodPost, "/api/token/refresh/", map[string]any{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = authed.do(http.MethodPost, "/api/logout/", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Refresh token is required for logout.", body["error"])

	resp, body = authed.do(http.MethodPost, "/api/logout/", map[string]any{"refresh": rotated})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logout successful.", body["message"])

	resp, _ = anon.do(http.MethodPost, "/api/token/refresh/", map[string]any{"refresh": rotated})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := apitest.New(t)
	anon := apiClient{t: t, srv: srv}
	for _, path := range []string{"/api/requests/", "/api/user-dashboard/", "/api/user/profile/", "/api/user-notifications/"} {
		resp, _ := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
	resp, _ := anon.do(http.MethodPost, "/api/donations/", map[string]any{"item_name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = anon.do(http.MethodGet, "/api/donations/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDonationCRUD(t *testing.T) {
	_, donor, recipient := newClients(t)

	resp, body := donor.do(http.MethodPost, "/api/donations/", map[string]any{
		"item_name": "Rice", "description": "5kg", "category": "FOOD", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	donationID := id(body["id"])
	assert.Equal(t, "AVAILABLE", body["status"])
	assert.Equal(t, "Food", body["category_label"])

	resp, body = donor.do(http.MethodPost, "/api/donations/", map[string]any{"item_name": "", "category": "FOOD", "quantity": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["code"])

	items := recipient.list("/api/donations/?category=food")
	require.Len(t, items, 1)
	assert.Empty(t, recipient.list("/api/donations/?category=BOOKS"))

	path := fmt.Sprintf("/api/donations/%d/", donationID)
	resp, _ = recipient.do(http.MethodPatch, path, map[string]any{"item_name": "Mine"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = donor.do(http.MethodPatch, path, map[string]any{"quantity": "5"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["quantity"])

	resp, _ = recipient.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = donor.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = donor.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDonationMultipartImage(t *testing.T) {
	srv, donor, _ := newClients(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("item_name", "Jacket"))
	require.NoError(t, mw.WriteField("category", "CLOTHES"))
	require.NoError(t, mw.WriteField("quantity", "1"))
	part, err := mw.CreateFormFile("image", "jacket.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/donations/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := donor.send(req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	image, ok := body["image"].(string)
	require.True(t, ok)
	assert.Contains(t, image, "/media/donation_images/")

	media, err := srv.Client().Get(image)
	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)
}

func TestRequestApproveClaimFlow(t *testing.T) {
	_, donor, recipient := newClients(t)

	_, body := donor.do(http.MethodPost, "/api/donations/", map[string]any{"item_name": "Books", "category": "BOOKS", "quantity": 2})
	donationID := id(body["id"])

	resp, _ := donor.do(http.MethodPost, "/api/requests/", map[string]any{"donation": donationID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = recipient.do(http.MethodPost, "/api/requests/", map[string]any{"donation": donationID, "requested_quantity": 2, "comments": "for school"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	requestID := id(body["id"])
	assert.Equal(t, "PENDING", body["status"])

	resp, body = recipient.do(http.MethodPost, "/api/requests/", map[string]any{"donation": donationID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "duplicate_request", body["code"])

	_, body = recipient.do(http.MethodGet, "/api/user-notifications/", nil)
	assert.EqualValues(t, 1, body["pending_requests"])
	_, body = donor.do(http.MethodGet, "/api/user-notifications/", nil)
	assert.EqualValues(t, 1, body["pending_donations"])

	resp, body = donor.do(http.MethodPost, "/api/user-dashboard/", map[string]any{"action": "archive", "request_id": requestID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid action specified.", body["error"])

	resp, _ = recipient.do(http.MethodPost, "/api/user-dashboard/", map[string]any{"action": "approve", "request_id": requestID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = donor.do(http.MethodPost, "/api/user-dashboard/", map[string]any{"action": "approve", "request_id": requestID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Request approved successfully.", body["message"])

	resp, body = donor.do(http.MethodGet, fmt.Sprintf("/api/donations/%d/", donationID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RESERVED", body["status"])
	assert.EqualValues(t, 0, body["quantity"])

	resp, _ = donor.do(http.MethodPost, fmt.Sprintf("/api/requests/%d/claim/", requestID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = recipient.do(http.MethodPost, fmt.Sprintf("/api/requests/%d/claim/", requestID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Donation claimed successfully.", body["message"])

	_, body = donor.do(http.MethodGet, "/api/user-dashboard/", nil)
	listings := body["donations"].([]any)
	require.Len(t, listings, 1)
	listing := listings[0].(map[string]any)
	assert.Equal(t, "CLAIMED", listing["donation"].(map[string]any)["status"])
	reqs := listing["requests"].([]any)
	require.Len(t, reqs, 1)
	assert.Equal(t, "CLAIMED", reqs[0].(map[string]any)["status"])

	_, body = donor.do(http.MethodGet, "/api/stats/", nil)
	assert.EqualValues(t, 1, body["claimed_donations"])
	assert.EqualValues(t, 2, body["total_users"])
}

func TestProfileExportAndDelete(t *testing.T) {
	_, donor, _ := newClients(t)

	resp, body := donor.do(http.MethodPut, "/api/user/profile/", map[string]any{"city": "Bandung", "bio": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bandung", body["city"])

	resp, _ = donor.do(http.MethodPost, "/api/user/change-password/", map[string]any{
		"old_password": "password123", "new_password": "newpassword1", "confirm_password": "different1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = donor.do(http.MethodPost, "/api/user/change-password/", map[string]any{
		"old_password": "password123", "new_password": "newpassword1", "confirm_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password changed successfully!", body["message"])

	donor.do(http.MethodPost, "/api/donations/", map[string]any{"item_name": "Shoes", "category": "SHOES", "quantity": 1})

	req, err := http.NewRequest(http.MethodGet, donor.srv.URL+"/api/user/export/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+donor.token)
	raw, err := donor.srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, "application/zip", raw.Header.Get("Content-Type"))
	data, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"profile.json", "donations.json", "requests.json"}, names)

	resp, _ = donor.do(http.MethodDelete, "/api/user/profile/", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = donor.do(http.MethodGet, "/api/user/profile/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	anon := apiClient{t: t, srv: donor.srv}
	assert.Empty(t, anon.list("/api/donations/"))
}

func TestRequestLimitClosesDonation(t *testing.T) {
	srv := apitest.New(t, func(c *infra.Config) { c.MaxRequestsPerDonation = 1 })
	_, donorPair := srv.User(t, "dina")
	donor := apiClient{t: t, srv: srv, token: donorPair.Access}
	_, body := donor.do(http.MethodPost, "/api/donations/", map[string]any{"item_name": "Toys", "category": "OTHER", "quantity": 4})
	donationID := id(body["id"])

	for i, name := range []string{"a1", "a2"} {
		_, pair := srv.User(t, name)
		c := apiClient{t: t, srv: srv, token: pair.Access}
		resp, body := c.do(http.MethodPost, "/api/requests/", map[string]any{"donation": donationID})
		if i == 0 {
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
			continue
		}
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "request_limit_reached", body["code"])
	}

	d, err := srv.Service.GetDonation(context.Background(), donationID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationClosed, d.Status)
}

func TestClientLog(t *testing.T) {
	srv := apitest.New(t)
	anon := apiClient{t: t, srv: srv}
	resp, _ := anon.do(http.MethodPost, "/api/log/", map[string]any{"level": "warn", "message": "ui crashed"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = anon.do(http.MethodPost, "/api/log/", map[string]any{"level": "warn"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
