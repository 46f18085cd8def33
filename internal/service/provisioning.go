package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/metrics"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/validate"
)

// SignupInvitationStore is the invitation storage used by signup
type SignupInvitationStore interface {
	GetByID(ctx context.Context, id string) (*model.Invitation, error)
	MarkExpired(ctx context.Context, id string) error
	AddAcceptToBatch(batch *database.AtomicBatch, id, userID string)
}

// SignupProfileStore is the profile storage used by signup
type SignupProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	AddCreateToBatch(batch *database.AtomicBatch, profile *model.Profile)
}

// ProvisioningService turns an invitation into a reviewer account
type ProvisioningService struct {
	db           database.Database
	invitations  SignupInvitationStore
	profiles     SignupProfileStore
	provider     AuthProvider
	tokenService *TokenService
	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Recorder
}

// ProvisioningServiceConfig holds configuration for the provisioning service
type ProvisioningServiceConfig struct {
	DB             database.Database
	InvitationRepo SignupInvitationStore
	ProfileRepo    SignupProfileStore
	Provider       AuthProvider
	TokenService   *TokenService
	Clock          func() time.Time
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
}

// NewProvisioningService creates a new provisioning service
func NewProvisioningService(cfg ProvisioningServiceConfig) *ProvisioningService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ProvisioningService{
		db:           cfg.DB,
		invitations:  cfg.InvitationRepo,
		profiles:     cfg.ProfileRepo,
		provider:     cfg.Provider,
		tokenService: cfg.TokenService,
		now:          cfg.Clock,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// SignupResult is a freshly provisioned and signed-in reviewer
type SignupResult struct {
	User      *model.User    `json:"user"`
	Profile   *model.Profile `json:"profile"`
	TokenPair *TokenPair     `json:"tokens"`
}

// AcceptInvitation creates an identity for the invitation's email, binds a
// reviewer profile to it and consumes the invitation.
//
// Checks run in a fixed order: the invitation must exist and be pending,
// then the password, then the affiliation, then the remaining fields.
// The profile and the invitation update commit together; an identity left
// without a profile is logged for cleanup.
func (s *ProvisioningService) AcceptInvitation(ctx context.Context, token string, req *model.SignupRequest) (*SignupResult, error) {
	inv, err := s.pendingInvitation(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := checkSignupPassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Credentials = strings.TrimSpace(req.Credentials)
	req.Bio = strings.TrimSpace(req.Bio)

	affiliation := req.AffiliationValue()
	if affiliation != nil && (!affiliation.Type.IsValid() || affiliation.Manufacturer == "") {
		return nil, ErrIncompleteAffiliation
	}

	req.Token = inv.ID
	if errs := validate.Struct(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.provider.CreateIdentity(ctx, inv.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:      user.ID,
		Role:        model.RoleReviewer,
		Email:       inv.Email,
		Name:        req.Name,
		Credentials: req.Credentials,
		Bio:         optionalString(req.Bio),
		Affiliation: affiliation,
		CreatedOn:   s.now().UTC(),
	}

	batch := database.NewAtomicBatch()
	s.profiles.AddCreateToBatch(batch, profile)
	s.invitations.AddAcceptToBatch(batch, inv.ID, user.ID)

	if err := batch.Execute(ctx, s.db); err != nil {
		s.logger.Error("identity created without profile",
			"user_id", user.ID,
			"invitation_id", inv.ID,
			"error", err,
		)
		if current, _ := s.invitations.GetByID(ctx, inv.ID); current != nil && current.Status == model.InvitationAccepted {
			return nil, ErrInvitationAlreadyUsed
		}
		return nil, err
	}
	s.metrics.SignupCompleted()
	s.logger.Info("reviewer provisioned", "user_id", user.ID, "invitation_id", inv.ID)

	if stored, err := s.profiles.GetByUserID(ctx, user.ID); err == nil && stored != nil {
		profile = stored
	}

	tokens, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &SignupResult{User: user, Profile: profile, TokenPair: tokens}, nil
}

// pendingInvitation resolves a signup token to an effectively pending
// invitation, persisting expiry when it has lapsed
func (s *ProvisioningService) pendingInvitation(ctx context.Context, token string) (*model.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidInvitation
	}

	inv, err := s.invitations.GetByID(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvalidInvitation
	}

	now := s.now()
	switch inv.EffectiveStatus(now) {
	case model.InvitationPending:
		return inv, nil
	case model.InvitationAccepted:
		return nil, ErrInvitationAlreadyUsed
	case model.InvitationExpired:
		if inv.NeedsExpiry(now) {
			if err := s.invitations.MarkExpired(ctx, inv.ID); err != nil {
				s.logger.Warn("failed to persist invitation expiry", "invitation_id", inv.ID, "error", err)
			} else {
				s.metrics.InvitationsExpired(1)
			}
		}
		return nil, ErrInvitationExpired
	}
	return nil, ErrInvalidInvitation
}

func checkSignupPassword(password, confirm string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
