package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"sharekindness/internal/middleware"
)

type clientLogRequest struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

const maxClientLogMessage = 2000

// ClientLog records a log line sent by a browser or CLI client, tagged with
// the user when the request carries a valid access token.
func (a *App) ClientLog(w http.ResponseWriter, r *http.Request) {
	var req clientLogRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "message is required")
		return
	}
	if len(msg) > maxClientLogMessage {
		msg = msg[:maxClientLogMessage]
	}
	level, err := zerolog.ParseLevel(strings.ToLower(req.Level))
	if err != nil || level == zerolog.NoLevel || level < zerolog.InfoLevel {
		level = zerolog.InfoLevel
	}
	if level > zerolog.ErrorLevel {
		level = zerolog.ErrorLevel
	}
	ev := a.Logger.WithLevel(level).
		Str("source", "client").
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("ip", middleware.ClientIP(r))
	if userID := middleware.UserIDFromContext(r.Context()); userID > 0 {
		ev = ev.Int64("user_id", userID)
	}
	ev.Interface("context", req.Context).Msg(msg)
	w.WriteHeader(http.StatusAccepted)
}
