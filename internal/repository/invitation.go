package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

const invitationTable = "invitation"

// InvitationRepository handles invitation data access.
// Invitation keys are random UUIDs and double as the signup credential.
type InvitationRepository struct {
	db database.Database
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db database.Database) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create stores a pending invitation under a fresh random key. An email that
// already has a pending or accepted invitation yields database.ErrDuplicate.
func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	query := `
		CREATE type::thing("invitation", $key) CONTENT {
			email: $email,
			invitee_name: IF $invitee_name IS NOT NULL THEN $invitee_name ELSE NONE END,
			custom_message: IF $custom_message IS NOT NULL THEN $custom_message ELSE NONE END,
			status: "pending",
			invited_by: type::record($invited_by),
			created_on: <datetime>$created_on,
			expires_on: <datetime>$expires_on
		}
	`

	vars := map[string]interface{}{
		"key":            uuid.NewString(),
		"email":          inv.Email,
		"invitee_name":   ptrToNone(inv.InviteeName),
		"custom_message": ptrToNone(inv.CustomMessage),
		"invited_by":     inv.InvitedBy,
		"created_on":     formatTime(inv.CreatedOn),
		"expires_on":     formatTime(inv.ExpiresOn),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: live invitation exists for email", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	inv.ID = created.ID
	inv.Status = model.InvitationPending
	return nil
}

// GetByID retrieves an invitation by ID or bare key
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*model.Invitation, error) {
	query := `SELECT * FROM type::thing("invitation", $key)`
	return r.getOne(ctx, query, map[string]interface{}{"key": recordKey(id, invitationTable)})
}

// GetPendingByEmail retrieves the stored-pending invitation for an email, if any
func (r *InvitationRepository) GetPendingByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	query := `SELECT * FROM invitation WHERE email = $email AND status = "pending" LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"email": email})
}

// GetAcceptedByEmail retrieves the accepted invitation for an email, if any
func (r *InvitationRepository) GetAcceptedByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	query := `SELECT * FROM invitation WHERE email = $email AND status = "accepted" LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"email": email})
}

// List returns all invitations, newest first
func (r *InvitationRepository) List(ctx context.Context) ([]*model.Invitation, error) {
	query := `SELECT * FROM invitation ORDER BY created_on DESC`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := unwrapRecords(results)
	invitations := make([]*model.Invitation, 0, len(rows))
	for _, row := range rows {
		inv, err := parseInvitationResult(row)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, nil
}

// MarkExpired persists the expired status of a pending invitation
func (r *InvitationRepository) MarkExpired(ctx context.Context, id string) error {
	query := `UPDATE type::thing("invitation", $key) SET status = "expired" WHERE status = "pending"`
	return r.db.Execute(ctx, query, map[string]interface{}{"key": recordKey(id, invitationTable)})
}

// Renew returns an expired invitation to pending with a new validity window.
// The ID is unchanged so previously shared links keep working.
func (r *InvitationRepository) Renew(ctx context.Context, id string, createdOn, expiresOn time.Time) (*model.Invitation, error) {
	query := `
		UPDATE type::thing("invitation", $key) SET
			status = "pending",
			created_on = <datetime>$created_on,
			expires_on = <datetime>$expires_on
		WHERE status = "expired"
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"key":        recordKey(id, invitationTable),
		"created_on": formatTime(createdOn),
		"expires_on": formatTime(expiresOn),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: live invitation exists for email", database.ErrDuplicate)
		}
		return nil, err
	}
	return parseInvitationResult(result)
}

// ExpireOverdue marks every pending invitation whose expiry has passed as
// expired and returns how many were updated
func (r *InvitationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE invitation SET status = "expired"
		WHERE status = "pending" AND expires_on < <datetime>$now
		RETURN id
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"now": formatTime(now)})
	if err != nil {
		return 0, err
	}
	return len(unwrapRecords(results)), nil
}

// AddAcceptToBatch queues acceptance of a pending invitation on an atomic
// batch. The batch fails if the invitation is no longer pending.
func (r *InvitationRepository) AddAcceptToBatch(batch *database.AtomicBatch, id, userID string) {
	query := `
		IF (SELECT VALUE status FROM ONLY type::thing("invitation", $key)) != "pending" {
			THROW "invitation is no longer pending";
		};
		UPDATE type::thing("invitation", $key) SET
			status = "accepted",
			accepted_on = time::now(),
			accepted_by = type::record($accepted_by)
	`
	batch.Add(query, map[string]interface{}{
		"key":         recordKey(id, invitationTable),
		"accepted_by": userID,
	})
}

func (r *InvitationRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.Invitation, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	inv, err := parseInvitationResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func parseInvitationResult(result interface{}) (*model.Invitation, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	inv := &model.Invitation{
		ID:            convertSurrealID(data["id"]),
		Email:         getString(data, "email"),
		InviteeName:   getStringPtr(data, "invitee_name"),
		CustomMessage: getStringPtr(data, "custom_message"),
		Status:        model.InvitationStatus(getString(data, "status")),
		InvitedBy:     getRecordID(data, "invited_by"),
		CreatedOn:     getTimeValue(data, "created_on"),
		ExpiresOn:     getTimeValue(data, "expires_on"),
		AcceptedOn:    getTime(data, "accepted_on"),
	}
	if by := getRecordID(data, "accepted_by"); by != "" {
		inv.AcceptedBy = &by
	}
	return inv, nil
}
