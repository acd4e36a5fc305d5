package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hmelgaard/minitwit/internal/api/auth"
	"github.com/hmelgaard/minitwit/internal/api/follow"
	"github.com/hmelgaard/minitwit/internal/api/message"
	"github.com/hmelgaard/minitwit/internal/api/timeline"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler     *auth.AuthHandler
	FollowHandler   *follow.FollowHandler
	MessageHandler  *message.MessageHandler
	TimelineHandler *timeline.TimelineHandler

	// AuthenticateMiddleware rejects requests without a valid session
	// identity; MaybeAuthenticateMiddleware resolves one when present but
	// lets anonymous requests through (timeline reads).
	AuthenticateMiddleware      func(http.Handler) http.Handler
	MaybeAuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)
		})

		// Timeline reads resolve the viewer when a token is present but
		// never require one.
		r.Group(func(r chi.Router) {
			r.Use(cfg.MaybeAuthenticateMiddleware)
			r.Get("/timeline", cfg.TimelineHandler.Home)
			r.Get("/timeline/public", cfg.TimelineHandler.Public)
			r.Get("/timeline/{username}", cfg.TimelineHandler.User)
		})

		// Every mutating action requires an authenticated identity.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Post("/messages", cfg.MessageHandler.Create)
			r.Post("/users/{username}/follow", cfg.FollowHandler.Follow)
			r.Delete("/users/{username}/follow", cfg.FollowHandler.Unfollow)
		})
	})

	// Legacy flat JSON listings kept for old consumers.
	r.Get("/data", cfg.TimelineHandler.LegacyData)
	r.Get("/{username}/data", cfg.TimelineHandler.LegacyUserData)

	return r
}
