package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 8
	maxPasswordLength = 128
)

// UserRepository defines the interface for identity storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLogin(ctx context.Context, userID string) error
}

// ProfileReader loads the profile bound to an identity
type ProfileReader interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

// AuthProvider creates and verifies identities
type AuthProvider interface {
	// CreateIdentity returns ErrEmailInUse or ErrWeakPassword on rejection
	CreateIdentity(ctx context.Context, email, password string) (*model.User, error)
	// Authenticate returns ErrInvalidCredentials for any mismatch
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// LocalAuthProvider stores bcrypt password hashes in the user table
type LocalAuthProvider struct {
	userRepo     UserRepository
	tokenService *TokenService
	cost         int
}

// LocalAuthProviderConfig holds configuration for the local auth provider
type LocalAuthProviderConfig struct {
	UserRepo     UserRepository
	TokenService *TokenService
	BcryptCost   int // Default: 12
}

// NewLocalAuthProvider creates a new local auth provider
func NewLocalAuthProvider(cfg LocalAuthProviderConfig) *LocalAuthProvider {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcryptCost
	}
	return &LocalAuthProvider{
		userRepo:     cfg.UserRepo,
		tokenService: cfg.TokenService,
		cost:         cfg.BcryptCost,
	}
}

// CreateIdentity creates an identity with a hashed password
func (p *LocalAuthProvider) CreateIdentity(ctx context.Context, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := p.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hashStr, err := hashPassword(password, p.cost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: email, Hash: &hashStr}
	if err := p.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email and password
func (p *LocalAuthProvider) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := p.userRepo.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == nil || *user.Hash == "" {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(password, *user.Hash) {
		return nil, ErrInvalidCredentials
	}

	_ = p.userRepo.TouchLogin(ctx, user.ID)
	return user, nil
}

// SignOut revokes the session's refresh token
func (p *LocalAuthProvider) SignOut(ctx context.Context, refreshToken string) error {
	return p.tokenService.Revoke(ctx, refreshToken)
}

// AuthService handles sign-in sessions
type AuthService struct {
	provider     AuthProvider
	userRepo     UserRepository
	profiles     ProfileReader
	tokenService *TokenService
	logger       *slog.Logger
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	Provider     AuthProvider
	UserRepo     UserRepository
	Profiles     ProfileReader
	TokenService *TokenService
	Logger       *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthService{
		provider:     cfg.Provider,
		userRepo:     cfg.UserRepo,
		profiles:     cfg.Profiles,
		tokenService: cfg.TokenService,
		logger:       cfg.Logger,
	}
}

// LoginResult represents a successful login
type LoginResult struct {
	User      *model.User    `json:"user"`
	Profile   *model.Profile `json:"profile,omitempty"`
	TokenPair *TokenPair     `json:"tokens"`
}

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*LoginResult, error) {
	user, err := s.provider.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Profile: profile, TokenPair: tokens}, nil
}

// Refresh rotates a refresh token and issues a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokenService.Consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	return s.tokenService.GenerateTokenPair(ctx, user)
}

// Logout ends the session bound to a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.provider.SignOut(ctx, refreshToken)
}

// GetProfile returns the profile of the signed-in identity
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (s *AuthService) ValidateAccessToken(token string) (*model.TokenClaims, error) {
	claims, err := s.tokenService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &model.TokenClaims{UserID: claims.UserID, Email: claims.Email}, nil
}

// Helper functions

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordInput(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), passwordInput(password))
	return err == nil
}

// passwordInput pre-hashes passwords longer than bcrypt's 72 byte limit
func passwordInput(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
