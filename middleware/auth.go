package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/metrics"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator is implemented by *auth.Validator.
type Authenticator interface {
	Validate(ctx context.Context, token string) (*models.User, error)
}

// Auth validates the bearer token and the live account state before the
// handler runs. The validated user is stored in the request context.
func Auth(v Authenticator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				metrics.AuthRejections.WithLabelValues("missing").Inc()
				render.Error(w, r, logger, errs.Unauthenticated("missing or invalid authorization header"))
				return
			}
			user, err := v.Validate(r.Context(), token)
			if err != nil {
				metrics.AuthRejections.WithLabelValues(strings.ToLower(string(errs.From(err).Code))).Inc()
				render.Error(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				render.Error(w, r, logger, errs.Unauthenticated("not authenticated"))
				return
			}
			if !user.IsAdmin() {
				metrics.AuthRejections.WithLabelValues("forbidden_role").Inc()
				render.Error(w, r, logger, errs.ForbiddenRole("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return primitive.NilObjectID, false
	}
	return u.ID, true
}
