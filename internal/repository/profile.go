package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

// ProfileRepository handles reviewer profile data access
type ProfileRepository struct {
	db database.Database
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const createProfileQuery = `
	CREATE profile CONTENT {
		user: type::record($user),
		role: $role,
		email: $email,
		name: $name,
		credentials: $credentials,
		bio: IF $bio IS NOT NULL THEN $bio ELSE NONE END,
		affiliation: IF $affiliation IS NOT NULL THEN $affiliation ELSE NONE END,
		created_on: time::now()
	}
`

func profileVars(p *model.Profile) map[string]interface{} {
	role := p.Role
	if role == "" {
		role = model.RoleReviewer
	}

	var affiliation interface{}
	if p.Affiliation != nil {
		affiliation = map[string]interface{}{
			"type":         string(p.Affiliation.Type),
			"manufacturer": p.Affiliation.Manufacturer,
		}
	}

	return map[string]interface{}{
		"user":        p.UserID,
		"role":        string(role),
		"email":       p.Email,
		"name":        p.Name,
		"credentials": p.Credentials,
		"bio":         ptrToNone(p.Bio),
		"affiliation": affiliation,
	}
}

// Create creates a profile for an identity
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	result, err := r.db.Query(ctx, createProfileQuery, profileVars(profile))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: profile already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	profile.ID = created.ID
	profile.CreatedOn = created.CreatedOn
	if profile.Role == "" {
		profile.Role = model.RoleReviewer
	}
	return nil
}

// AddCreateToBatch queues profile creation on an atomic batch
func (r *ProfileRepository) AddCreateToBatch(batch *database.AtomicBatch, profile *model.Profile) {
	batch.Add(createProfileQuery, profileVars(profile))
}

// GetByUserID retrieves the profile bound to an identity
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT * FROM profile WHERE user = type::record($user) LIMIT 1`
	vars := map[string]interface{}{"user": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	profile, err := parseProfileResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// GetByUserIDs retrieves profiles for a set of identities, keyed by user ID
func (r *ProfileRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	out := make(map[string]*model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	query := `SELECT * FROM profile WHERE user IN $users.map(|$u| type::record($u))`
	vars := map[string]interface{}{"users": userIDs}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	for _, row := range unwrapRecords(results) {
		p, err := parseProfileResult(row)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, nil
}

// SetRole updates a profile's role
func (r *ProfileRepository) SetRole(ctx context.Context, userID string, role model.ProfileRole) error {
	query := `UPDATE profile SET role = $role WHERE user = type::record($user)`
	vars := map[string]interface{}{
		"user": userID,
		"role": string(role),
	}
	return r.db.Execute(ctx, query, vars)
}

func parseProfileResult(result interface{}) (*model.Profile, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:          convertSurrealID(data["id"]),
		UserID:      getRecordID(data, "user"),
		Role:        model.ProfileRole(getString(data, "role")),
		Email:       getString(data, "email"),
		Name:        getString(data, "name"),
		Credentials: getString(data, "credentials"),
		Bio:         getStringPtr(data, "bio"),
		CreatedOn:   getTimeValue(data, "created_on"),
	}

	if aff := getMap(data, "affiliation"); aff != nil {
		profile.Affiliation = &model.Affiliation{
			Type:         model.AffiliationType(getString(aff, "type")),
			Manufacturer: getString(aff, "manufacturer"),
		}
	}

	return profile, nil
}
