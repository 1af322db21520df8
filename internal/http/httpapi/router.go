package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sharekindness/internal/http/handlers"
	"sharekindness/internal/middleware"
)

// NewRouter wires every API route. lookup may be nil when no GeoIP database
// is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.StripSlashes,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Handle("/media/*", app.Media())

	authed := middleware.AuthJWT(cfg.JWTSecret)
	throttled := middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(throttled)
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
			r.Post("/token/refresh", app.TokenRefresh)
		})

		r.Get("/stats", app.StatsSummary)
		r.With(middleware.OptionalAuthJWT(cfg.JWTSecret)).Post("/log", app.ClientLog)

		r.Get("/donations", app.DonationsList)
		r.Get("/donations/{id}", app.DonationGet)

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/logout", app.Logout)

			r.Post("/donations", app.DonationsCreate)
			r.Put("/donations/{id}", app.DonationUpdate)
			r.Patch("/donations/{id}", app.DonationUpdate)
			r.Delete("/donations/{id}", app.DonationDelete)

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", app.RequestsList)
				r.Post("/", app.RequestsCreate)
				r.Get("/{id}", app.RequestGet)
				r.Post("/{id}/claim", app.RequestClaim)
			})

			r.Get("/user-dashboard", app.Dashboard)
			r.Post("/user-dashboard", app.DashboardDecide)
			r.Get("/user-notifications", app.Notifications)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", app.ProfileGet)
				r.Put("/profile", app.ProfileUpdate)
				r.Patch("/profile", app.ProfileUpdate)
				r.Delete("/profile", app.ProfileDelete)
				r.Post("/change-password", app.ChangePassword)
				r.Get("/export", app.Export)
			})
		})
	})

	return r
}
