package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetone/api/internal/model"
)

var inviteEpoch = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestInvitationService(repo *mockInvitationRepo, clock *testClock) *InvitationService {
	return NewInvitationService(InvitationServiceConfig{
		InvitationRepo: repo,
		Origin:         "https://truetone.test/",
		Clock:          clock.Now,
	})
}

func TestInvitationService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	svc := newTestInvitationService(repo, newTestClock(inviteEpoch))

	view, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{
		Email:       "  Player@Example.COM ",
		InviteeName: "Pat Player",
	})
	require.NoError(t, err)

	assert.Equal(t, "player@example.com", view.Email)
	assert.Equal(t, model.InvitationPending, view.Status)
	assert.Equal(t, "user:admin", view.InvitedBy)
	assert.Equal(t, inviteEpoch.Add(7*24*time.Hour), view.ExpiresOn)
	require.NotNil(t, view.InviteeName)
	assert.Equal(t, "Pat Player", *view.InviteeName)
	assert.Nil(t, view.CustomMessage)
	assert.Equal(t, "https://truetone.test/signup?invite=key-1", view.SignupURL)
}

func TestInvitationService_Create_InvalidEmail(t *testing.T) {
	t.Parallel()
	svc := newTestInvitationService(newMockInvitationRepo(), newTestClock(inviteEpoch))

	for _, email := range []string{"", "not-an-email", "a@b", "two words@x.io"} {
		_, err := svc.Create(context.Background(), "user:admin", &model.CreateInvitationRequest{Email: email})

		var problem *model.ProblemDetails
		require.True(t, errors.As(err, &problem), "email %q", email)
		assert.Equal(t, "email", problem.Errors[0].Field)
	}
}

func TestInvitationService_DuplicatePendingThenExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	first, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "sam@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "SAM@example.com"})
	assert.ErrorIs(t, err, ErrDuplicatePending)

	clock.Advance(8 * 24 * time.Hour)

	second, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "sam@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.InvitationExpired, repo.stored(first.ID).Status)
	assert.Equal(t, model.InvitationPending, repo.stored(second.ID).Status)
}

func TestInvitationService_Create_AcceptedEmailIsRegistered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	repo.put(&model.Invitation{
		ID:        "invitation:done",
		Email:     "a@x.com",
		Status:    model.InvitationAccepted,
		CreatedOn: inviteEpoch.Add(-48 * time.Hour),
		ExpiresOn: inviteEpoch.Add(5 * 24 * time.Hour),
	})
	svc := newTestInvitationService(repo, newTestClock(inviteEpoch))

	_, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "A@x.com"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	live := 0
	for _, inv := range all {
		if inv.Email == "a@x.com" && inv.Status.IsLive() {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestInvitationService_Get_LazyExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	created, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "lee@example.com"})
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, got.Status)
	assert.Empty(t, repo.marked)

	clock.Advance(2 * 24 * time.Hour)
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationExpired, got.Status)
	assert.Equal(t, []string{created.ID}, repo.marked)
	assert.Equal(t, model.InvitationExpired, repo.stored(created.ID).Status)
}

func TestInvitationService_Get_NotFound(t *testing.T) {
	t.Parallel()
	svc := newTestInvitationService(newMockInvitationRepo(), newTestClock(inviteEpoch))

	_, err := svc.Get(context.Background(), "invitation:missing")
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestInvitationService_List_PersistsExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	old, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "old@example.com"})
	require.NoError(t, err)
	clock.Advance(5 * 24 * time.Hour)
	fresh, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "new@example.com"})
	require.NoError(t, err)
	clock.Advance(3 * 24 * time.Hour)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, fresh.ID, views[0].ID, "newest first")
	assert.Equal(t, model.InvitationPending, views[0].Status)
	assert.Equal(t, old.ID, views[1].ID)
	assert.Equal(t, model.InvitationExpired, views[1].Status)
	assert.Equal(t, model.InvitationExpired, repo.stored(old.ID).Status)
}

func TestInvitationService_Resend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	created, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "kim@example.com"})
	require.NoError(t, err)

	_, err = svc.Resend(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvitationNotResendable, "pending invitations cannot be resent")

	clock.Advance(10 * 24 * time.Hour)

	renewed, err := svc.Resend(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, renewed.ID)
	assert.Equal(t, model.InvitationPending, renewed.Status)
	assert.Equal(t, clock.Now().Add(7*24*time.Hour), renewed.ExpiresOn)
	assert.Equal(t, created.SignupURL, renewed.SignupURL)
}

func TestInvitationService_Resend_Accepted(t *testing.T) {
	t.Parallel()
	repo := newMockInvitationRepo()
	repo.put(&model.Invitation{
		ID:        "invitation:used",
		Email:     "used@example.com",
		Status:    model.InvitationAccepted,
		ExpiresOn: inviteEpoch.Add(-time.Hour),
	})
	svc := newTestInvitationService(repo, newTestClock(inviteEpoch))

	_, err := svc.Resend(context.Background(), "invitation:used")
	assert.ErrorIs(t, err, ErrInvitationNotResendable)
}

func TestInvitationService_Resend_BlockedByNewerPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	old, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "jo@example.com"})
	require.NoError(t, err)
	clock.Advance(8 * 24 * time.Hour)
	_, err = svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "jo@example.com"})
	require.NoError(t, err)

	_, err = svc.Resend(ctx, old.ID)
	assert.ErrorIs(t, err, ErrDuplicatePending)
}

func TestInvitationService_Resend_BlockedByAcceptedInvitation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	repo.put(&model.Invitation{
		ID:        "invitation:stale",
		Email:     "kim@example.com",
		Status:    model.InvitationExpired,
		CreatedOn: inviteEpoch.Add(-20 * 24 * time.Hour),
		ExpiresOn: inviteEpoch.Add(-13 * 24 * time.Hour),
	})
	repo.put(&model.Invitation{
		ID:        "invitation:used",
		Email:     "kim@example.com",
		Status:    model.InvitationAccepted,
		CreatedOn: inviteEpoch.Add(-10 * 24 * time.Hour),
		ExpiresOn: inviteEpoch.Add(-3 * 24 * time.Hour),
	})
	svc := newTestInvitationService(repo, newTestClock(inviteEpoch))

	_, err := svc.Resend(ctx, "invitation:stale")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, model.InvitationExpired, repo.stored("invitation:stale").Status)
}

func TestInvitationService_ReconcileExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	clock := newTestClock(inviteEpoch)
	svc := newTestInvitationService(repo, clock)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: email})
		require.NoError(t, err)
	}
	clock.Advance(4 * 24 * time.Hour)
	_, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{Email: "c@example.com"})
	require.NoError(t, err)

	clock.Advance(4 * 24 * time.Hour)
	n, err := svc.ReconcileExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.ReconcileExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvitationService_Preview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newMockInvitationRepo()
	svc := newTestInvitationService(repo, newTestClock(inviteEpoch))

	created, err := svc.Create(ctx, "user:admin", &model.CreateInvitationRequest{
		Email:         "ana@example.com",
		InviteeName:   "Ana",
		CustomMessage: "Welcome aboard",
	})
	require.NoError(t, err)

	preview, err := svc.Preview(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, created.Email, preview.Email)
	assert.Equal(t, "Ana", *preview.InviteeName)
	assert.Equal(t, "Welcome aboard", *preview.CustomMessage)
	assert.Equal(t, model.InvitationPending, preview.Status)

	_, err = svc.Preview(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
	_, err = svc.Preview(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestShareURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin string
		id     string
		want   string
	}{
		{"https://truetone.reviews", "invitation:abc-123", "https://truetone.reviews/signup?invite=abc-123"},
		{"https://truetone.reviews/", "abc-123", "https://truetone.reviews/signup?invite=abc-123"},
		{"http://localhost:5173", "invitation:⟨x⟩", "http://localhost:5173/signup?invite=%E2%9F%A8x%E2%9F%A9"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShareURL(tt.origin, tt.id))
	}
}
