package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-contacts-api/internal/config"
	"go-contacts-api/internal/handler"
	"go-contacts-api/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimit, cfg.MeRateLimit)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Get("/confirmed_email/{token}", authHandler.ConfirmEmail)
			auth.Post("/request_email", authHandler.RequestEmail)
			auth.Post("/forgot_password", authHandler.ForgotPassword)
			auth.Post("/reset_password", authHandler.ResetPassword)
		})

		api.Route("/users", func(users chi.Router) {
			users.With(authMiddleware.RequireAuth).Get("/me", userHandler.Me)
			users.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).Patch("/avatar", userHandler.UpdateAvatar)
		})
	})

	return r
}
