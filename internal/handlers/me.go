package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/services"
)

// ProfileHandlers serves the signed-in user's own profile.
type ProfileHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

func NewProfileHandlers(authn *auth.Authenticator, users services.UserService) *ProfileHandlers {
	return &ProfileHandlers{authn: authn, users: users}
}

// Routes wires the /me endpoints onto the provided router.
func (h *ProfileHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.Require())
	}
	r.Get("/", h.getProfile)
	r.Put("/", h.updateProfile)
}

func (h *ProfileHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(ctx, *identity)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildProfilePayload(*profile))
}

type profileUpdateRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (h *ProfileHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	profile, err := h.users.UpdateProfile(ctx, *identity, services.ProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildProfilePayload(*profile))
}
