package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "env": a.Config.AppEnv})
}

// Media serves uploaded images from the media directory.
func (a *App) Media() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(a.Files.BasePath())))
}
