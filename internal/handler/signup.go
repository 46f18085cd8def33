package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/service"
)

// InvitationPreviewer resolves a signup link to what the invitee sees
type InvitationPreviewer interface {
	Preview(ctx context.Context, token string) (*model.InvitationPreview, error)
}

// Provisioner turns an invitation into a reviewer account
type Provisioner interface {
	AcceptInvitation(ctx context.Context, token string, req *model.SignupRequest) (*service.SignupResult, error)
}

// SignupHandler handles the invitation-gated signup flow
type SignupHandler struct {
	invitations  InvitationPreviewer
	provisioning Provisioner
}

// NewSignupHandler creates a new signup handler
func NewSignupHandler(invitations InvitationPreviewer, provisioning Provisioner) *SignupHandler {
	return &SignupHandler{
		invitations:  invitations,
		provisioning: provisioning,
	}
}

// Preview handles GET /v1/signup/{token}
func (h *SignupHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.invitations.Preview(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, preview, nil)
}

// Signup handles POST /v1/signup
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req model.SignupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.provisioning.AcceptInvitation(r.Context(), req.Token, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "signup"))
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{
		"self": "/v1/me",
	})
}
