// Package handlers adapts HTTP requests to the service layer.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/middleware"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	return service.ParseID(chi.URLParam(r, name), name)
}

// currentUser returns the user set by middleware.Auth.
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errs.Unauthenticated("not authenticated")
	}
	return u, nil
}
