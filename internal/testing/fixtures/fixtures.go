package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/repository"
)

// DefaultPassword is the password every fixture identity is created with
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	db          database.Database
	users       *repository.UserRepository
	profiles    *repository.ProfileRepository
	saxophones  *repository.SaxophoneRepository
	reviews     *repository.ReviewRepository
	invitations *repository.InvitationRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		db:          db,
		users:       repository.NewUserRepository(db),
		profiles:    repository.NewProfileRepository(db),
		saxophones:  repository.NewSaxophoneRepository(db),
		reviews:     repository.NewReviewRepository(db),
		invitations: repository.NewInvitationRepository(db),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Identity Fixtures
// ============================================================================

// UserOpts customizes identity creation
type UserOpts struct {
	Email    string
	Password string
}

// CreateUser creates an identity without a profile
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:    fmt.Sprintf("user_%s@test.local", randomID()),
		Password: DefaultPassword,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	hashStr := string(hash)

	user := &model.User{Email: model.NormalizeEmail(o.Email), Hash: &hashStr}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	user.Hash = nil
	return user
}

// WithEmail sets the identity email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// ============================================================================
// Profile Fixtures
// ============================================================================

// ProfileOpts customizes profile creation
type ProfileOpts struct {
	Role        model.ProfileRole
	Name        string
	Credentials string
	Affiliation *model.Affiliation
}

// CreateProfile creates a profile bound to an existing identity
func (f *Factory) CreateProfile(t *testing.T, user *model.User, opts ...func(*ProfileOpts)) *model.Profile {
	t.Helper()

	o := &ProfileOpts{
		Role:        model.RoleReviewer,
		Name:        "Test Reviewer",
		Credentials: "Professional tenor player",
	}
	for _, fn := range opts {
		fn(o)
	}

	profile := &model.Profile{
		UserID:      user.ID,
		Role:        o.Role,
		Email:       user.Email,
		Name:        o.Name,
		Credentials: o.Credentials,
		Affiliation: o.Affiliation,
	}
	if err := f.profiles.Create(ctx(t), profile); err != nil {
		t.Fatalf("fixtures: failed to create profile: %v", err)
	}
	return profile
}

// WithAffiliation sets a manufacturer affiliation
func WithAffiliation(kind model.AffiliationType, manufacturer string) func(*ProfileOpts) {
	return func(o *ProfileOpts) {
		o.Affiliation = &model.Affiliation{Type: kind, Manufacturer: manufacturer}
	}
}

// Account is an identity together with its profile
type Account struct {
	User    *model.User
	Profile *model.Profile
}

// CreateReviewer creates an identity with a reviewer profile
func (f *Factory) CreateReviewer(t *testing.T, opts ...func(*ProfileOpts)) *Account {
	t.Helper()
	user := f.CreateUser(t)
	return &Account{User: user, Profile: f.CreateProfile(t, user, opts...)}
}

// CreateAdmin creates an identity with an admin profile
func (f *Factory) CreateAdmin(t *testing.T) *Account {
	t.Helper()
	user := f.CreateUser(t)
	profile := f.CreateProfile(t, user, func(o *ProfileOpts) {
		o.Role = model.RoleAdmin
		o.Name = "Test Admin"
	})
	return &Account{User: user, Profile: profile}
}

// ============================================================================
// Catalog Fixtures
// ============================================================================

// SaxophoneOpts customizes saxophone creation
type SaxophoneOpts struct {
	Brand      string
	Model      string
	Type       model.SaxophoneType
	PriceRange string
	PhotoURL   *string
}

// CreateSaxophone creates a catalog record without reviews
func (f *Factory) CreateSaxophone(t *testing.T, creator *Account, opts ...func(*SaxophoneOpts)) *model.Saxophone {
	t.Helper()

	o := &SaxophoneOpts{
		Brand:      "Selmer",
		Model:      fmt.Sprintf("Mark VI %s", randomID()),
		Type:       model.SaxophoneTenor,
		PriceRange: "$5,000 - $10,000",
	}
	for _, fn := range opts {
		fn(o)
	}

	sax := &model.Saxophone{
		Brand:          o.Brand,
		Model:          o.Model,
		Type:           o.Type,
		ProductionYear: "1965",
		PriceRange:     o.PriceRange,
		PhotoURL:       o.PhotoURL,
		Description:    "A test instrument",
		CreatedBy:      creator.User.ID,
	}
	if err := f.saxophones.Create(ctx(t), sax); err != nil {
		t.Fatalf("fixtures: failed to create saxophone: %v", err)
	}
	return sax
}

// WithBrand sets the saxophone brand
func WithBrand(brand string) func(*SaxophoneOpts) {
	return func(o *SaxophoneOpts) { o.Brand = brand }
}

// WithType sets the saxophone voice
func WithType(kind model.SaxophoneType) func(*SaxophoneOpts) {
	return func(o *SaxophoneOpts) { o.Type = kind }
}

// UniformRatings returns a current-schema vector with every dimension at value
func UniformRatings(value int) model.RatingVector {
	dims, _ := model.RatingSchema(model.CurrentRatingSchema)
	values := make(map[string]int, len(dims))
	for _, d := range dims {
		values[d.Key] = value
	}
	return model.RatingVector{Version: model.CurrentRatingSchema, Values: values}
}

// CreateReview adds a review by the account to a saxophone. The vector
// defaults to UniformRatings(5).
func (f *Factory) CreateReview(t *testing.T, sax *model.Saxophone, author *Account, ratings ...model.RatingVector) *model.Review {
	t.Helper()

	vector := UniformRatings(model.DefaultRating)
	if len(ratings) > 0 {
		vector = ratings[0]
	}

	review := &model.Review{
		SaxophoneID:   sax.ID,
		ReviewerID:    author.User.ID,
		ReviewerEmail: author.User.Email,
		Ratings:       vector,
		WrittenReview: "Plays evenly across the range.",
		Credentials:   author.Profile.Credentials,
	}
	if err := f.reviews.Create(ctx(t), review); err != nil {
		t.Fatalf("fixtures: failed to create review: %v", err)
	}
	return review
}

// ============================================================================
// Invitation Fixtures
// ============================================================================

// InvitationOpts customizes invitation creation
type InvitationOpts struct {
	Email     string
	CreatedOn time.Time
	TTL       time.Duration
}

// CreateInvitation creates a pending invitation issued by the admin
func (f *Factory) CreateInvitation(t *testing.T, admin *Account, opts ...func(*InvitationOpts)) *model.Invitation {
	t.Helper()

	o := &InvitationOpts{
		Email:     fmt.Sprintf("invitee_%s@test.local", randomID()),
		CreatedOn: time.Now().UTC(),
		TTL:       model.DefaultInvitationTTL,
	}
	for _, fn := range opts {
		fn(o)
	}

	inv := &model.Invitation{
		Email:     model.NormalizeEmail(o.Email),
		InvitedBy: admin.User.ID,
		CreatedOn: o.CreatedOn,
		ExpiresOn: o.CreatedOn.Add(o.TTL),
	}
	if err := f.invitations.Create(ctx(t), inv); err != nil {
		t.Fatalf("fixtures: failed to create invitation: %v", err)
	}
	return inv
}

// CreateLapsedInvitation creates an invitation that is stored pending but
// whose expiry has already passed
func (f *Factory) CreateLapsedInvitation(t *testing.T, admin *Account, opts ...func(*InvitationOpts)) *model.Invitation {
	t.Helper()
	opts = append(opts, func(o *InvitationOpts) {
		o.CreatedOn = time.Now().UTC().Add(-8 * 24 * time.Hour)
		o.TTL = model.DefaultInvitationTTL
	})
	return f.CreateInvitation(t, admin, opts...)
}

// WithInviteeEmail sets the invited address
func WithInviteeEmail(email string) func(*InvitationOpts) {
	return func(o *InvitationOpts) { o.Email = email }
}
