package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/kevinaaaquil/shelf/backend/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersHandler struct {
	Accounts  *service.Accounts
	Favorites *service.FavoritesRegistry
	Progress  *service.ProgressTracker
	Logger    *slog.Logger
}

type FavoritesResponse struct {
	Message   string               `json:"message"`
	Favorites []primitive.ObjectID `json:"favorites"`
}

func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	p, err := h.Accounts.Profile(r.Context(), user.ID)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, p)
}

// UpdateProfile body: { "name"?, "email"?, "gender"?, "password"? }
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	var req service.ProfileInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	p, err := h.Accounts.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, p)
}

func (h *UsersHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	books, err := h.Favorites.List(r.Context(), user.ID)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, books)
}

func (h *UsersHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	bookID, err := pathID(r, "bookId")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	favs, added, err := h.Favorites.Toggle(r.Context(), user.ID, bookID)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	msg := "removed from favorites"
	if added {
		msg = "added to favorites"
	}
	render.JSON(w, http.StatusOK, FavoritesResponse{Message: msg, Favorites: favs})
}

// UpdateProgress body: { "bookId", "currentPage", "totalPages" }
func (h *UsersHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	var req service.ProgressInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	if _, err := h.Progress.Record(r.Context(), user.ID, req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.Message(w, http.StatusOK, "progress saved")
}
