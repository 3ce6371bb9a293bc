package routes

import (
	"net/http"

	"github.com/teamx/teamfinder/internal/app"
	"github.com/teamx/teamfinder/internal/handler"
	"github.com/teamx/teamfinder/internal/httpx"
	"github.com/teamx/teamfinder/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	account := handler.NewAccountHandler(app.AuthService)
	profile := handler.NewProfileHandler(app.ProfileService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	// Auth - signup flow and login (rate limited)
	rateLimit := middleware.RateLimit(app.RateLimiter, app.Metrics.RateLimited)

	mux.HandleFunc("POST /auth/request-otp", rateLimit(auth.RequestOTP))
	mux.HandleFunc("POST /auth/verify-otp", rateLimit(auth.VerifyOTP))
	mux.HandleFunc("POST /auth/signup", rateLimit(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimit(auth.Login))
	mux.HandleFunc("GET /auth/status", auth.Status)

	// ============================================================================
	// PROTECTED ROUTES (bearer token)
	// ============================================================================

	requireAuth := middleware.RequireAuth(app.AuthService)

	mux.HandleFunc("GET /auth/me", requireAuth(auth.Me))
	mux.HandleFunc("PUT /auth/password", rateLimit(requireAuth(account.ChangePassword)))

	mux.HandleFunc("POST /profile/setup", requireAuth(profile.Setup))
	mux.HandleFunc("GET /profile/me", requireAuth(profile.Mine))
	mux.HandleFunc("GET /profile", requireAuth(profile.List))
	mux.HandleFunc("GET /profile/posted/all", requireAuth(profile.Posted))
	mux.HandleFunc("GET /profile/user/{userId}", requireAuth(profile.ByUser))
	mux.HandleFunc("GET /profile/{id}", requireAuth(profile.Get))
	mux.HandleFunc("PUT /profile/{id}", requireAuth(profile.Update))
	mux.HandleFunc("DELETE /profile/{id}", requireAuth(profile.Delete))
	mux.HandleFunc("PATCH /profile/{id}/post", requireAuth(profile.Post))
	mux.HandleFunc("PATCH /profile/{id}/unpost", requireAuth(profile.Unpost))
	mux.HandleFunc("POST /profile/{id}/avatar", requireAuth(profile.UploadAvatar))
	mux.HandleFunc("DELETE /profile/{id}/avatar", requireAuth(profile.DeleteAvatar))

	// JSON 404 for everything else
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.ErrorStatus(w, http.StatusNotFound, "not_found", "Route not found")
	})

	return middleware.Chain(mux,
		middleware.RequestLogging,
		app.Metrics.Instrument,
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
	)
}
