package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/truetone/api/internal/handler"
	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/repository"
	"github.com/truetone/api/internal/service"
	"github.com/truetone/api/internal/storage/memory"
	"github.com/truetone/api/internal/testing/fixtures"
	"github.com/truetone/api/internal/testing/helpers"
	"github.com/truetone/api/internal/testing/testdb"
)

// newE2ERouter wires the full stack on an isolated database
func newE2ERouter(t *testing.T, tdb *testdb.TestDB, jwtHelper *helpers.JWTHelper) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := tdb.DB

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	tokens := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtHelper.Service(),
		TokenRepo:  repository.NewTokenRepository(db),
	})
	provider := service.NewLocalAuthProvider(service.LocalAuthProviderConfig{
		UserRepo:     userRepo,
		TokenService: tokens,
		BcryptCost:   bcrypt.MinCost,
	})
	auth := service.NewAuthService(service.AuthServiceConfig{
		Provider:     provider,
		UserRepo:     userRepo,
		Profiles:     profileRepo,
		TokenService: tokens,
		Logger:       logger,
	})
	invitations := service.NewInvitationService(service.InvitationServiceConfig{
		InvitationRepo: invitationRepo,
		Origin:         "https://truetone.test",
		Logger:         logger,
	})
	provisioning := service.NewProvisioningService(service.ProvisioningServiceConfig{
		DB:             db,
		InvitationRepo: invitationRepo,
		ProfileRepo:    profileRepo,
		Provider:       provider,
		TokenService:   tokens,
		Logger:         logger,
	})
	photos := memory.New("https://truetone.test")
	catalog := service.NewCatalogService(service.CatalogServiceConfig{
		SaxophoneRepo: repository.NewSaxophoneRepository(db),
		ReviewRepo:    repository.NewReviewRepository(db),
		Profiles:      profileRepo,
		Storage:       photos,
		Logger:        logger,
	})

	idem := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	t.Cleanup(idem.Stop)

	return handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		AllowedOrigins: []string{"https://truetone.test"},
		Tokens:         auth,
		Profiles:       profileRepo,
		Idempotency:    idem,
		Health:         handler.NewHealthHandler(db),
		Auth:           handler.NewAuthHandler(auth),
		Signup:         handler.NewSignupHandler(invitations, provisioning),
		Catalog:        handler.NewCatalogHandler(catalog, service.DefaultMaxPhotoBytes),
		Invitations:    handler.NewInvitationHandler(invitations),
		Media:          photos,
	})
}

func submission(brand string) map[string]interface{} {
	return map[string]interface{}{
		"saxophone": map[string]interface{}{
			"brand":           brand,
			"model":           "Super Action 80 Series II",
			"type":            "Alto",
			"production_year": "1990s",
			"price_range":     "$3,000 - $5,000",
			"description":     "Classic modern alto.",
		},
		"review": map[string]interface{}{
			"ratings":        fixtures.UniformRatings(7),
			"written_review": "Even scale and a focused core.",
			"credentials":    "Session player",
		},
	}
}

func TestE2E_InvitationToReview(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	jwtHelper := helpers.NewJWTHelper(t)
	router := newE2ERouter(t, tdb, jwtHelper)

	admin := f.CreateAdmin(t)
	outsider := f.CreateReviewer(t)

	// Only admins can invite
	rec := helpers.NewRequest(t, http.MethodPost, "/v1/admin/invitations").
		WithAuth(jwtHelper, outsider.User).
		WithBody(map[string]string{"email": "newbie@example.com"}).
		Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeNotAdmin)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/admin/invitations").
		WithAuth(jwtHelper, admin.User).
		WithBody(map[string]string{"email": "Newbie@Example.com", "invitee_name": "Newbie"}).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusCreated)

	var invitation model.InvitationView
	helpers.DecodeData(t, rec, &invitation)
	require.NotNil(t, invitation.Invitation)
	assert.Equal(t, "newbie@example.com", invitation.Email)
	token := strings.TrimPrefix(invitation.ID, "invitation:")
	assert.Contains(t, invitation.SignupURL, token)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/admin/invitations").
		WithAuth(jwtHelper, admin.User).
		WithBody(map[string]string{"email": "newbie@example.com"}).
		Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusConflict, model.ErrCodeDuplicatePending)

	// Preview is public
	rec = helpers.NewRequest(t, http.MethodGet, "/v1/signup/"+token).Do(router)
	helpers.AssertStatus(t, rec, http.StatusOK)
	var preview model.InvitationPreview
	helpers.DecodeData(t, rec, &preview)
	assert.Equal(t, model.InvitationPending, preview.Status)

	signup := map[string]interface{}{
		"token":            token,
		"password":         "correct horse battery",
		"confirm_password": "correct horse battery",
		"name":             "Newbie",
		"credentials":      "Conservatory graduate",
	}
	mismatched := map[string]interface{}{}
	for k, v := range signup {
		mismatched[k] = v
	}
	mismatched["confirm_password"] = "something else"
	rec = helpers.NewRequest(t, http.MethodPost, "/v1/signup").WithBody(mismatched).Do(router)
	helpers.AssertValidationError(t, rec, "password")

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/signup").WithBody(signup).Do(router)
	helpers.AssertStatus(t, rec, http.StatusCreated)

	var result service.SignupResult
	helpers.DecodeData(t, rec, &result)
	require.NotNil(t, result.TokenPair)
	require.NotNil(t, result.Profile)
	assert.Equal(t, model.RoleReviewer, result.Profile.Role)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/signup").WithBody(signup).Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusConflict, model.ErrCodeAlreadyUsed)

	// A registered email cannot be invited again
	rec = helpers.NewRequest(t, http.MethodPost, "/v1/admin/invitations").
		WithAuth(jwtHelper, admin.User).
		WithBody(map[string]string{"email": "newbie@example.com"}).
		Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusConflict, model.ErrCodeAlreadyExists)

	// The new reviewer submits a saxophone; a retried submission is replayed
	access := result.TokenPair.AccessToken
	rec = helpers.NewRequest(t, http.MethodPost, "/v1/saxophones").
		WithToken(access).
		WithIdempotencyKey("first-submit").
		WithBody(submission("Selmer")).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusCreated)
	var created model.SaxophoneDetail
	helpers.DecodeData(t, rec, &created)
	assert.Equal(t, 1, created.ReviewCount)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/saxophones").
		WithToken(access).
		WithIdempotencyKey("first-submit").
		WithBody(submission("Selmer")).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusCreated)
	assert.Equal(t, "true", rec.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 1, helpers.CountRecords(t, tdb.DB, "saxophone"))

	// A second reviewer adds a review
	rec = helpers.NewRequest(t, http.MethodPost, "/v1/saxophones/"+created.ID+"/reviews").
		WithAuth(jwtHelper, outsider.User).
		WithBody(map[string]interface{}{
			"ratings":        fixtures.UniformRatings(3),
			"written_review": "Bright for my taste.",
			"credentials":    "Jazz educator",
		}).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusCreated)

	rec = helpers.NewRequest(t, http.MethodGet, "/v1/saxophones/"+created.ID).Do(router)
	helpers.AssertStatus(t, rec, http.StatusOK)
	var detail model.SaxophoneDetail
	helpers.DecodeData(t, rec, &detail)
	assert.Equal(t, 2, detail.ReviewCount)
	require.Len(t, detail.Reviews, 2)
	require.NotNil(t, detail.Ratings)

	// The new identity can sign in with its password
	rec = helpers.NewRequest(t, http.MethodPost, "/v1/auth/login").
		WithBody(map[string]string{"email": "newbie@example.com", "password": "correct horse battery"}).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusOK)
}

func TestE2E_AuthFailures(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	jwtHelper := helpers.NewJWTHelper(t)
	router := newE2ERouter(t, tdb, jwtHelper)

	reviewer := f.CreateReviewer(t)

	rec := helpers.NewRequest(t, http.MethodGet, "/v1/me").
		WithToken(jwtHelper.GenerateExpiredToken(t, reviewer.User)).
		Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeTokenExpired)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/auth/login").
		WithBody(map[string]string{"email": reviewer.User.Email, "password": "wrong-password"}).
		Do(router)
	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeLoginFailed)

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/auth/login").
		WithBody(map[string]string{"email": reviewer.User.Email, "password": fixtures.DefaultPassword}).
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusOK)

	rec = helpers.NewRequest(t, http.MethodGet, "/v1/me").
		WithAuth(jwtHelper, reviewer.User).
		WithHeader("X-Request-ID", "trace-e2e").
		Do(router)
	helpers.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "trace-e2e", rec.Header().Get("X-Request-ID"))
	data := helpers.GetDataFromResponse(t, rec)
	assert.Equal(t, reviewer.Profile.Name, data["name"])

	rec = helpers.NewRequest(t, http.MethodPost, "/v1/saxophones").
		WithAuth(jwtHelper, reviewer.User).
		WithBody(map[string]interface{}{"saxophone": map[string]string{"brand": "Selmer"}}).
		Do(router)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}
