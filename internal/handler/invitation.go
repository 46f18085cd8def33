package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/model"
)

// InvitationService is the admin-facing invitation API
type InvitationService interface {
	Create(ctx context.Context, adminID string, req *model.CreateInvitationRequest) (*model.InvitationView, error)
	List(ctx context.Context) ([]*model.InvitationView, error)
	Get(ctx context.Context, id string) (*model.InvitationView, error)
	Resend(ctx context.Context, id string) (*model.InvitationView, error)
}

// InvitationHandler handles admin invitation endpoints. Routes are mounted
// behind middleware.RequireAdmin.
type InvitationHandler struct {
	invitations InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitations InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// Create handles POST /v1/admin/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req model.CreateInvitationRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	view, err := h.invitations.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create invitation"))
		return
	}

	WriteData(w, http.StatusCreated, view, invitationLinks(view.ID))
}

// List handles GET /v1/admin/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.invitations.List(r.Context())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list invitations"))
		return
	}
	if views == nil {
		views = []*model.InvitationView{}
	}

	WriteCollection(w, http.StatusOK, views, nil, map[string]string{
		"self": "/v1/admin/invitations",
	})
}

// Get handles GET /v1/admin/invitations/{id}
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID("invitation", chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, model.NewNotFoundError("invitation"))
		return
	}

	view, err := h.invitations.Get(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, view, invitationLinks(view.ID))
}

// Resend handles POST /v1/admin/invitations/{id}/resend
func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID("invitation", chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, model.NewNotFoundError("invitation"))
		return
	}

	view, err := h.invitations.Resend(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "resend invitation"))
		return
	}

	WriteData(w, http.StatusOK, view, invitationLinks(view.ID))
}

func invitationLinks(id string) map[string]string {
	return map[string]string{
		"self":   "/v1/admin/invitations/" + id,
		"resend": "/v1/admin/invitations/" + id + "/resend",
	}
}
