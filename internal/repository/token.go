package repository

import (
	"context"
	"errors"
	"time"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user: type::record($user),
			token_hash: $token_hash,
			expires_on: <datetime>$expires_on,
			created_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"user":       token.UserID,
		"token_hash": token.TokenHash,
		"expires_on": formatTime(token.ExpiresOn),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	token.ID = created.ID
	token.CreatedOn = created.CreatedOn
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	query := `SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1`
	vars := map[string]interface{}{"hash": hash}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := unwrapRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &model.RefreshToken{
		ID:        convertSurrealID(data["id"]),
		UserID:    getRecordID(data, "user"),
		TokenHash: getString(data, "token_hash"),
		ExpiresOn: getTimeValue(data, "expires_on"),
		CreatedOn: getTimeValue(data, "created_on"),
		RevokedOn: getTime(data, "revoked_on"),
	}, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) error {
	query := `UPDATE refresh_token SET revoked_on = time::now() WHERE token_hash = $hash AND revoked_on = NONE`
	return r.db.Execute(ctx, query, map[string]interface{}{"hash": hash})
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked_on = time::now() WHERE user = type::record($user) AND revoked_on = NONE`
	return r.db.Execute(ctx, query, map[string]interface{}{"user": userID})
}

// DeleteExpiredTokens removes expired tokens and tokens revoked more than a week ago
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	query := `DELETE refresh_token WHERE expires_on < time::now() OR (revoked_on != NONE AND revoked_on < <datetime>$cutoff)`
	vars := map[string]interface{}{"cutoff": formatTime(time.Now().Add(-7 * 24 * time.Hour))}
	return r.db.Execute(ctx, query, vars)
}
