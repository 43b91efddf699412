package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/shelf/backend/middleware"
	"github.com/kevinaaaquil/shelf/backend/ratelimit"
	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	Auth   *AuthHandler
	Users  *UsersHandler
	Books  *BooksHandler
	Admin  *AdminHandler
	AI     *AIHandler
	Health Pinger

	Authenticator middleware.Authenticator
	LoginLimiter  *ratelimit.KeyedLimiter
	AILimiter     *ratelimit.KeyedLimiter
	CORSOrigins   []string
	Logger        *slog.Logger
}

// Handler builds the full route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(rt.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(rt.CORSOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.Message(w, http.StatusOK, "welcome to shelf.")
	})
	r.Get("/health", rt.health)
	r.Handle("/metrics", promhttp.Handler())

	authn := middleware.Auth(rt.Authenticator, rt.Logger)
	admin := middleware.RequireAdmin(rt.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if rt.LoginLimiter != nil {
					r.Use(middleware.RateLimit(rt.LoginLimiter, middleware.ByIP, rt.Logger))
				}
				r.Post("/register", rt.Auth.Register)
				r.Post("/login", rt.Auth.Login)
			})
			r.With(authn).Post("/logout", rt.Auth.Logout)
			r.With(authn).Get("/me", rt.Auth.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", rt.Users.Profile)
			r.Put("/profile", rt.Users.UpdateProfile)
			r.Get("/favorites", rt.Users.ListFavorites)
			r.Put("/favorites/{bookId}", rt.Users.ToggleFavorite)
			r.Put("/progress", rt.Users.UpdateProgress)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", rt.Books.List)
			r.Get("/{id}", rt.Books.Get)
			r.Get("/{id}/stream", rt.Books.Stream)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/{id}/reviews", rt.Books.CreateReview)
				r.Delete("/{id}/reviews/{reviewId}", rt.Books.DeleteReview)
				r.With(admin).Post("/", rt.Books.Create)
				r.With(admin).Delete("/{id}", rt.Books.Delete)
				r.With(admin).Put("/{id}/trending", rt.Books.ToggleTrending)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn, admin)
			r.Get("/stats", rt.Admin.Stats)
			r.Get("/users", rt.Admin.Users)
			r.Put("/users/{id}/block", rt.Admin.ToggleBlock)
			r.Delete("/users/{id}", rt.Admin.DeleteUser)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(authn)
			if rt.AILimiter != nil {
				r.Use(middleware.RateLimit(rt.AILimiter, middleware.ByUser, rt.Logger))
			}
			r.Post("/chat", rt.AI.Chat)
			r.With(admin).Post("/synopsis", rt.AI.Synopsis)
		})
	})
	return r
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := rt.Health.Ping(ctx); err != nil {
		rt.Logger.WarnContext(ctx, "health check failed", "error", err)
		render.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
