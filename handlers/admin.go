package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/kevinaaaquil/shelf/backend/service"
)

type AdminHandler struct {
	Admin  *service.Admin
	Logger *slog.Logger
}

type BlockResponse struct {
	Message   string `json:"message"`
	IsBlocked bool   `json:"isBlocked"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context())
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	blocked, err := h.Admin.ToggleBlock(r.Context(), actor, id)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	msg := "user unblocked"
	if blocked {
		msg = "user blocked"
	}
	render.JSON(w, http.StatusOK, BlockResponse{Message: msg, IsBlocked: blocked})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	if err := h.Admin.DeleteUser(r.Context(), actor, id); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
