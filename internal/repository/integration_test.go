package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/repository"
	"github.com/truetone/api/internal/testing/fixtures"
	"github.com/truetone/api/internal/testing/testdb"
)

func TestUserRepository_Integration(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewUserRepository(tdb.DB)

	user := f.CreateUser(t, fixtures.WithEmail("player@example.com"))

	got, err := repo.GetByEmail(tdb.Ctx(), "player@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.Hash)

	byID, err := repo.GetByID(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "player@example.com", byID.Email)

	missing, err := repo.GetByEmail(tdb.Ctx(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(tdb.Ctx(), &model.User{Email: "player@example.com"})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "expected ErrDuplicate, got %v", err)

	require.NoError(t, repo.TouchLogin(tdb.Ctx(), user.ID))
	touched, err := repo.GetByID(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, touched.LoginOn)
}

func TestProfileRepository_Integration(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewProfileRepository(tdb.DB)

	reviewer := f.CreateReviewer(t, fixtures.WithAffiliation(model.AffiliationWorksFor, "Yanagisawa"))
	other := f.CreateReviewer(t)

	got, err := repo.GetByUserID(tdb.Ctx(), reviewer.User.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RoleReviewer, got.Role)
	require.NotNil(t, got.Affiliation)
	assert.Equal(t, "Yanagisawa", got.Affiliation.Manufacturer)

	byIDs, err := repo.GetByUserIDs(tdb.Ctx(), []string{reviewer.User.ID, other.User.ID, "user:ghost"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	// One profile per identity
	err = repo.Create(tdb.Ctx(), &model.Profile{UserID: reviewer.User.ID, Name: "Again", Email: reviewer.User.Email})
	assert.True(t, errors.Is(err, database.ErrDuplicate), "expected ErrDuplicate, got %v", err)

	require.NoError(t, repo.SetRole(tdb.Ctx(), reviewer.User.ID, model.RoleAdmin))
	promoted, err := repo.GetByUserID(tdb.Ctx(), reviewer.User.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
}

func TestCatalogRepositories_Integration(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	saxRepo := repository.NewSaxophoneRepository(tdb.DB)
	reviewRepo := repository.NewReviewRepository(tdb.DB)

	reviewer := f.CreateReviewer(t)
	tenor := f.CreateSaxophone(t, reviewer)
	alto := f.CreateSaxophone(t, reviewer, fixtures.WithType(model.SaxophoneAlto), fixtures.WithBrand("Yamaha"))

	f.CreateReview(t, tenor, reviewer, fixtures.UniformRatings(8))
	f.CreateReview(t, tenor, reviewer)
	f.CreateReview(t, alto, reviewer)

	got, err := saxRepo.GetByID(tdb.Ctx(), tenor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SaxophoneTenor, got.Type)
	assert.Equal(t, reviewer.User.ID, got.CreatedBy)

	all, err := saxRepo.List(tdb.Ctx())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reviews, err := reviewRepo.ListBySaxophone(tdb.Ctx(), tenor.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, model.CurrentRatingSchema, reviews[0].Ratings.Version)
	assert.False(t, reviews[0].CreatedOn.Before(reviews[1].CreatedOn), "reviews must be newest first")

	grouped, err := reviewRepo.ListAll(tdb.Ctx())
	require.NoError(t, err)
	assert.Len(t, grouped[tenor.ID], 2)
	assert.Len(t, grouped[alto.ID], 1)
}

func TestInvitationRepository_Integration(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewInvitationRepository(tdb.DB)
	admin := f.CreateAdmin(t)

	t.Run("one pending invitation per email", func(t *testing.T) {
		inv := f.CreateInvitation(t, admin, fixtures.WithInviteeEmail("once@example.com"))
		assert.Equal(t, model.InvitationPending, inv.Status)

		err := repo.Create(tdb.Ctx(), &model.Invitation{
			Email:     "once@example.com",
			InvitedBy: admin.User.ID,
			CreatedOn: time.Now(),
			ExpiresOn: time.Now().Add(time.Hour),
		})
		assert.True(t, errors.Is(err, database.ErrDuplicate), "expected ErrDuplicate, got %v", err)

		pending, err := repo.GetPendingByEmail(tdb.Ctx(), "once@example.com")
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, inv.ID, pending.ID)
	})

	t.Run("bare key lookup", func(t *testing.T) {
		inv := f.CreateInvitation(t, admin)
		key := inv.ID[len("invitation:"):]

		got, err := repo.GetByID(tdb.Ctx(), key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, inv.Email, got.Email)
		assert.Equal(t, admin.User.ID, got.InvitedBy)

		missing, err := repo.GetByID(tdb.Ctx(), "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("expire then renew keeps the id", func(t *testing.T) {
		inv := f.CreateLapsedInvitation(t, admin, fixtures.WithInviteeEmail("lapsed@example.com"))

		n, err := repo.ExpireOverdue(tdb.Ctx(), time.Now())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)

		expired, err := repo.GetByID(tdb.Ctx(), inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationExpired, expired.Status)

		now := time.Now().UTC()
		renewed, err := repo.Renew(tdb.Ctx(), inv.ID, now, now.Add(model.DefaultInvitationTTL))
		require.NoError(t, err)
		require.NotNil(t, renewed)
		assert.Equal(t, inv.ID, renewed.ID)
		assert.Equal(t, model.InvitationPending, renewed.Status)
		assert.True(t, renewed.ExpiresOn.After(now))
	})

	t.Run("renew conflicts with a newer pending invitation", func(t *testing.T) {
		old := f.CreateLapsedInvitation(t, admin, fixtures.WithInviteeEmail("reinvited@example.com"))
		require.NoError(t, repo.MarkExpired(tdb.Ctx(), old.ID))

		// An expired invitation frees the email for a new one
		f.CreateInvitation(t, admin, fixtures.WithInviteeEmail("reinvited@example.com"))

		now := time.Now().UTC()
		_, err := repo.Renew(tdb.Ctx(), old.ID, now, now.Add(time.Hour))
		assert.True(t, errors.Is(err, database.ErrDuplicate), "expected ErrDuplicate, got %v", err)
	})

	t.Run("accept in a batch", func(t *testing.T) {
		inv := f.CreateInvitation(t, admin)
		invitee := f.CreateUser(t)

		batch := database.NewAtomicBatch()
		repo.AddAcceptToBatch(batch, inv.ID, invitee.ID)
		require.NoError(t, batch.Execute(tdb.Ctx(), tdb.DB))

		accepted, err := repo.GetByID(tdb.Ctx(), inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationAccepted, accepted.Status)
		require.NotNil(t, accepted.AcceptedBy)
		assert.Equal(t, invitee.ID, *accepted.AcceptedBy)

		// A second acceptance must fail the whole batch
		again := database.NewAtomicBatch()
		repo.AddAcceptToBatch(again, inv.ID, invitee.ID)
		assert.Error(t, again.Execute(tdb.Ctx(), tdb.DB))
	})

	t.Run("accepted invitation keeps the email taken", func(t *testing.T) {
		inv := f.CreateInvitation(t, admin, fixtures.WithInviteeEmail("joined@example.com"))
		invitee := f.CreateUser(t)

		batch := database.NewAtomicBatch()
		repo.AddAcceptToBatch(batch, inv.ID, invitee.ID)
		require.NoError(t, batch.Execute(tdb.Ctx(), tdb.DB))

		accepted, err := repo.GetAcceptedByEmail(tdb.Ctx(), "joined@example.com")
		require.NoError(t, err)
		require.NotNil(t, accepted)
		assert.Equal(t, inv.ID, accepted.ID)

		err = repo.Create(tdb.Ctx(), &model.Invitation{
			Email:     "joined@example.com",
			InvitedBy: admin.User.ID,
			CreatedOn: time.Now(),
			ExpiresOn: time.Now().Add(time.Hour),
		})
		assert.True(t, errors.Is(err, database.ErrDuplicate), "expected ErrDuplicate, got %v", err)
	})
}
