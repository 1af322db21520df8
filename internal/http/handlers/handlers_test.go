package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/middleware"
	"sharekindness/internal/storage"
)

func testApp() *App {
	return &App{Config: &infra.Config{MaxUploadBytes: 1 << 20}, Logger: zerolog.Nop()}
}

func TestFlexIntAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A *flexInt `json:"a"`
		B *flexInt `json:"b"`
		C *flexInt `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":3,"b":"7"}`), &v))
	assert.Equal(t, 3, *v.A.intPtr())
	assert.Equal(t, 7, *v.B.intPtr())
	assert.Nil(t, v.C.intPtr())

	err := json.Unmarshal([]byte(`{"a":"three"}`), &v)
	assert.ErrorIs(t, err, errBadPayload)
}

func TestBindURLEncodedForm(t *testing.T) {
	form := url.Values{"item_name": {"Rice"}, "quantity": {"2"}, "roles": {"donor, recipient"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	var dst struct {
		ItemName string   `json:"item_name"`
		Quantity *flexInt `json:"quantity"`
		Roles    []string `json:"roles"`
	}
	file, err := testApp().bind(w, r, &dst, "image")
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Equal(t, "Rice", dst.ItemName)
	assert.Equal(t, 2, *dst.Quantity.intPtr())
	assert.Equal(t, []string{"donor", "recipient"}, dst.Roles)
}

func TestBindEmptyAndMalformedJSON(t *testing.T) {
	var dst struct{ Name string }
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := testApp().bind(httptest.NewRecorder(), r, &dst, "")
	assert.NoError(t, err)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	_, err = testApp().bind(httptest.NewRecorder(), r, &dst, "")
	assert.ErrorIs(t, err, errBadPayload)
}

func TestFailMapsErrorsToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewValidationError("quantity", "bad"), http.StatusBadRequest, "validation_error"},
		{domain.Conflict(domain.NewValidationError("email", "taken")), http.StatusBadRequest, "conflict"},
		{domain.ErrDonationUnavailable, http.StatusBadRequest, "donation_unavailable"},
		{domain.ErrDuplicateRequest, http.StatusBadRequest, "duplicate_request"},
		{domain.ErrRequestLimitReached, http.StatusBadRequest, "request_limit_reached"},
		{storage.ErrUnsupportedImage, http.StatusBadRequest, "invalid_image"},
		{fmt.Errorf("wrapped: %w", domain.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	a := testApp()
	for _, tc := range cases {
		w := httptest.NewRecorder()
		a.fail(w, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code, tc.err.Error())
	}
}

func TestParseDonationFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?category=food&status=available&limit=5&offset=10&donor=3&search=rice", nil)
	f, err := parseDonationFilter(r)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFood, f.Category)
	assert.Equal(t, domain.DonationAvailable, f.Status)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 10, f.Offset)
	assert.EqualValues(t, 3, f.DonorID)
	assert.Equal(t, "rice", f.Search)

	r = httptest.NewRequest(http.MethodGet, "/?category=weapons&limit=-1", nil)
	_, err = parseDonationFilter(r)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "limit")
}

func TestClientLogTagsAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	app := testApp()
	app.Logger = zerolog.New(&buf)
	h := middleware.OptionalAuthJWT("s")(http.HandlerFunc(app.ClientLog))

	token, err := middleware.SignJWT("s", middleware.TokenClaims{Sub: "42", Type: middleware.TokenAccess, Exp: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	send := func(auth string) map[string]any {
		buf.Reset()
		req := httptest.NewRequest(http.MethodPost, "/api/log/", strings.NewReader(`{"level":"error","message":"upload failed"}`))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusAccepted, rr.Code)
		line := map[string]any{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		return line
	}

	line := send(token)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "upload failed", line["message"])
	assert.Equal(t, float64(42), line["user_id"])

	line = send("")
	assert.NotContains(t, line, "user_id")
	assert.Equal(t, "client", line["source"])
}

func TestOpenAPIDocsPage(t *testing.T) {
	app := testApp()
	app.Config.AppEnv = "staging"
	rr := httptest.NewRecorder()
	app.OpenAPIDocs(rr, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, "ShareKindness API (staging)")
	assert.Contains(t, body, `spec-url="/v1/openapi.json"`)

	app.Config.AppEnv = "production"
	rr = httptest.NewRecorder()
	app.OpenAPIDocs(rr, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	assert.Contains(t, rr.Body.String(), "<title>ShareKindness API</title>")

	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, OpenAPIPath, nil))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/api/log/")
}
