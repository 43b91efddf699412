package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/kevinaaaquil/shelf/backend/service"
)

type AuthHandler struct {
	Accounts *service.Accounts
	Logger   *slog.Logger
}

type SessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func sessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{
		ID:    s.User.ID.Hex(),
		Name:  s.User.Name,
		Email: s.User.Email,
		Role:  s.User.Role,
		Token: s.Token,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	sess, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusCreated, sessionResponse(sess))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	sess, err := h.Accounts.Login(r.Context(), req)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, sessionResponse(sess))
}

// Logout is stateless; tokens stay valid until expiry. The header tells the
// client to drop its stored credentials.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Clear-Site-Data", render.ClearSiteData)
	render.Message(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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
