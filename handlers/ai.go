package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/kevinaaaquil/shelf/backend/service/companion"
)

type AIHandler struct {
	Companion *companion.Companion
	Logger    *slog.Logger
}

type SynopsisRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Chat always answers 200 once the input is valid; Degraded marks a fallback reply.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req companion.ChatInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	reply, err := h.Companion.Chat(r.Context(), req)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, reply)
}

func (h *AIHandler) Synopsis(w http.ResponseWriter, r *http.Request) {
	var req SynopsisRequest
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	synopsis, err := h.Companion.Synopsis(r.Context(), req.Title, req.Author)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"synopsis": synopsis})
}
