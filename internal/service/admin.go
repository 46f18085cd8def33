package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/validate"
)

// AdminProfileStore is the profile access needed to grant the admin role
type AdminProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	SetRole(ctx context.Context, userID string, role model.ProfileRole) error
}

// AdminService grants the admin role. It backs the bootstrap command that
// creates the first administrator.
type AdminService struct {
	userRepo UserRepository
	provider AuthProvider
	profiles AdminProfileStore
	logger   *slog.Logger
}

// AdminServiceConfig holds configuration for the admin service
type AdminServiceConfig struct {
	UserRepo UserRepository
	Provider AuthProvider
	Profiles AdminProfileStore
	Logger   *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(cfg AdminServiceConfig) *AdminService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AdminService{
		userRepo: cfg.UserRepo,
		provider: cfg.Provider,
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
	}
}

// EnsureAdmin makes the identity with the given email an administrator.
// A missing identity is created with the password; an existing identity
// keeps its password. A missing profile is created with the admin role and
// an existing one is promoted. Running it twice is a no-op.
func (s *AdminService) EnsureAdmin(ctx context.Context, req *model.BootstrapAdminRequest) (*model.Profile, error) {
	req.Email = model.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if errs := validate.Struct(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.provider.CreateIdentity(ctx, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		s.logger.Info("admin identity created", "user_id", user.ID)
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if profile == nil {
		profile = &model.Profile{
			UserID:      user.ID,
			Role:        model.RoleAdmin,
			Email:       user.Email,
			Name:        req.Name,
			Credentials: "Site administrator",
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		s.logger.Info("admin profile created", "user_id", user.ID)
		return profile, nil
	}

	if !profile.IsAdmin() {
		if err := s.profiles.SetRole(ctx, user.ID, model.RoleAdmin); err != nil {
			return nil, err
		}
		profile.Role = model.RoleAdmin
		s.logger.Info("profile promoted to admin", "user_id", user.ID)
	}
	return profile, nil
}
