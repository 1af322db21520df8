package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sharekindness/internal/auth"
	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
	"sharekindness/internal/middleware"
	"sharekindness/internal/storage"
	"sharekindness/internal/workflow"
)

type App struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Service *workflow.Service
	Auth    *auth.Service
	Files   *storage.FileStore
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, svc *workflow.Service, authSvc *auth.Service, files *storage.FileStore) *App {
	return &App{Config: cfg, Logger: logger, Service: svc, Auth: authSvc, Files: files}
}

func (a *App) store() domain.Store { return a.Service.Store() }

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorBody{Error: msg, Code: errCode})
}

func (a *App) message(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"message": msg})
}

// fail maps a service error onto the HTTP error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		code := "validation_error"
		if errors.Is(err, domain.ErrConflict) {
			code = "conflict"
		}
		a.json(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Code: code, Fields: verr.Fields})
		return
	}
	switch {
	case errors.Is(err, domain.ErrDonationUnavailable):
		a.error(w, http.StatusBadRequest, "donation_unavailable", domain.ErrDonationUnavailable.Error())
	case errors.Is(err, domain.ErrDuplicateRequest):
		a.error(w, http.StatusBadRequest, "duplicate_request", err.Error())
	case errors.Is(err, domain.ErrRequestLimitReached):
		a.error(w, http.StatusBadRequest, "request_limit_reached", err.Error())
	case errors.Is(err, domain.ErrAlreadyProcessed):
		a.error(w, http.StatusBadRequest, "already_processed", err.Error())
	case errors.Is(err, domain.ErrNotApproved):
		a.error(w, http.StatusBadRequest, "not_approved", err.Error())
	case errors.Is(err, domain.ErrQuantityExceeded):
		a.error(w, http.StatusBadRequest, "quantity_exceeded", err.Error())
	case errors.Is(err, storage.ErrUnsupportedImage):
		a.error(w, http.StatusBadRequest, "invalid_image", "Upload a valid image.")
	case errors.Is(err, errBadPayload):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired credentials.")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusBadRequest, "conflict", err.Error())
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (a *App) currentUserID(r *http.Request) int64 {
	return middleware.UserIDFromContext(r.Context())
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
