package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/metrics"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/validate"
)

// InvitationRepository defines the interface for invitation storage
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByID(ctx context.Context, id string) (*model.Invitation, error)
	GetPendingByEmail(ctx context.Context, email string) (*model.Invitation, error)
	GetAcceptedByEmail(ctx context.Context, email string) (*model.Invitation, error)
	List(ctx context.Context) ([]*model.Invitation, error)
	MarkExpired(ctx context.Context, id string) error
	Renew(ctx context.Context, id string, createdOn, expiresOn time.Time) (*model.Invitation, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// InvitationService issues, lists and resends reviewer invitations.
// Reads apply lazy expiry: a pending invitation past its expiry is
// persisted as expired before it is returned.
type InvitationService struct {
	repo    InvitationRepository
	origin  string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// InvitationServiceConfig holds configuration for the invitation service
type InvitationServiceConfig struct {
	InvitationRepo InvitationRepository
	Origin         string        // Public web origin used in share links
	TTL            time.Duration // Default: 7 days
	Clock          func() time.Time
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
}

// NewInvitationService creates a new invitation service
func NewInvitationService(cfg InvitationServiceConfig) *InvitationService {
	if cfg.TTL == 0 {
		cfg.TTL = model.DefaultInvitationTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &InvitationService{
		repo:    cfg.InvitationRepo,
		origin:  strings.TrimRight(cfg.Origin, "/"),
		ttl:     cfg.TTL,
		now:     cfg.Clock,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Create issues a pending invitation for an email that has no pending or
// accepted invitation
func (s *InvitationService) Create(ctx context.Context, adminID string, req *model.CreateInvitationRequest) (*model.InvitationView, error) {
	req.Email = model.NormalizeEmail(req.Email)
	req.InviteeName = strings.TrimSpace(req.InviteeName)
	req.CustomMessage = strings.TrimSpace(req.CustomMessage)

	if errs := validate.Struct(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	if err := s.ensureNotRegistered(ctx, req.Email); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetPendingByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.NeedsExpiry(s.now()) {
			return nil, ErrDuplicatePending
		}
		if err := s.expire(ctx, existing); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	inv := &model.Invitation{
		Email:         req.Email,
		InviteeName:   optionalString(req.InviteeName),
		CustomMessage: optionalString(req.CustomMessage),
		InvitedBy:     adminID,
		CreatedOn:     now,
		ExpiresOn:     now.Add(s.ttl),
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicatePending
		}
		return nil, err
	}

	s.metrics.InvitationIssued(false)
	s.logger.Info("invitation issued", "invitation_id", inv.ID, "invited_by", adminID)

	return s.view(inv), nil
}

// List returns all invitations, newest first
func (s *InvitationService) List(ctx context.Context) ([]*model.InvitationView, error) {
	invitations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*model.InvitationView, 0, len(invitations))
	for _, inv := range invitations {
		if err := s.expire(ctx, inv); err != nil {
			return nil, err
		}
		views = append(views, s.view(inv))
	}
	return views, nil
}

// Get returns one invitation by ID
func (s *InvitationService) Get(ctx context.Context, id string) (*model.InvitationView, error) {
	inv, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	return s.view(inv), nil
}

// Resend renews an expired invitation with a fresh validity window.
// The ID, and so the share link, is unchanged.
func (s *InvitationService) Resend(ctx context.Context, id string) (*model.InvitationView, error) {
	inv, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	if inv.Status != model.InvitationExpired {
		return nil, ErrInvitationNotResendable
	}
	if err := s.ensureNotRegistered(ctx, inv.Email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	renewed, err := s.repo.Renew(ctx, inv.ID, now, now.Add(s.ttl))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicatePending
		}
		return nil, err
	}
	if renewed == nil {
		// Changed underneath us, e.g. resent by another admin
		return nil, ErrInvitationNotResendable
	}

	s.metrics.InvitationIssued(true)
	s.logger.Info("invitation resent", "invitation_id", renewed.ID)

	return s.view(renewed), nil
}

// ensureNotRegistered fails when the email already signed up through an
// accepted invitation
func (s *InvitationService) ensureNotRegistered(ctx context.Context, email string) error {
	accepted, err := s.repo.GetAcceptedByEmail(ctx, email)
	if err != nil {
		return err
	}
	if accepted != nil {
		return ErrAlreadyRegistered
	}
	return nil
}

// Preview returns what an invitee sees before signing up
func (s *InvitationService) Preview(ctx context.Context, token string) (*model.InvitationPreview, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvalidInvitation
	}

	return &model.InvitationPreview{
		Email:         inv.Email,
		InviteeName:   inv.InviteeName,
		CustomMessage: inv.CustomMessage,
		Status:        inv.Status,
		ExpiresOn:     inv.ExpiresOn,
	}, nil
}

// ShareURL builds the signup link for an invitation
func (s *InvitationService) ShareURL(id string) string {
	return ShareURL(s.origin, id)
}

// ReconcileExpired persists the expired status of every overdue pending
// invitation and returns how many changed
func (s *InvitationService) ReconcileExpired(ctx context.Context) (int, error) {
	n, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.InvitationsExpired(n)
	return n, nil
}

// ShareURL builds <origin>/signup?invite=<key> for an invitation ID
func ShareURL(origin, id string) string {
	key := strings.TrimPrefix(id, "invitation:")
	return strings.TrimRight(origin, "/") + "/signup?invite=" + url.QueryEscape(key)
}

// lookup loads an invitation and applies lazy expiry. Returns nil when
// the invitation does not exist.
func (s *InvitationService) lookup(ctx context.Context, id string) (*model.Invitation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, nil
	}

	if err := s.expire(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// expire persists the expired status when the stored status lags
func (s *InvitationService) expire(ctx context.Context, inv *model.Invitation) error {
	if !inv.NeedsExpiry(s.now()) {
		return nil
	}
	if err := s.repo.MarkExpired(ctx, inv.ID); err != nil {
		return err
	}
	inv.Status = model.InvitationExpired
	s.metrics.InvitationsExpired(1)
	return nil
}

func (s *InvitationService) view(inv *model.Invitation) *model.InvitationView {
	return &model.InvitationView{Invitation: inv, SignupURL: s.ShareURL(inv.ID)}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
