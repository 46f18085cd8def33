package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/service"
)

// ============================================================================
// Mocks
// ============================================================================

type mockAuthService struct {
	loginFunc      func(ctx context.Context, req *model.LoginRequest) (*service.LoginResult, error)
	refreshFunc    func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	logoutFunc     func(ctx context.Context, refreshToken string) error
	getProfileFunc func(ctx context.Context, userID string) (*model.Profile, error)
}

func (m *mockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*service.LoginResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *mockAuthService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if m.getProfileFunc != nil {
		return m.getProfileFunc(ctx, userID)
	}
	return nil, nil
}

type mockSignup struct {
	previewFunc func(ctx context.Context, token string) (*model.InvitationPreview, error)
	acceptFunc  func(ctx context.Context, token string, req *model.SignupRequest) (*service.SignupResult, error)
}

func (m *mockSignup) Preview(ctx context.Context, token string) (*model.InvitationPreview, error) {
	return m.previewFunc(ctx, token)
}

func (m *mockSignup) AcceptInvitation(ctx context.Context, token string, req *model.SignupRequest) (*service.SignupResult, error) {
	return m.acceptFunc(ctx, token, req)
}

type mockInvitations struct {
	createFunc func(ctx context.Context, adminID string, req *model.CreateInvitationRequest) (*model.InvitationView, error)
	listFunc   func(ctx context.Context) ([]*model.InvitationView, error)
	getFunc    func(ctx context.Context, id string) (*model.InvitationView, error)
	resendFunc func(ctx context.Context, id string) (*model.InvitationView, error)
}

func (m *mockInvitations) Create(ctx context.Context, adminID string, req *model.CreateInvitationRequest) (*model.InvitationView, error) {
	return m.createFunc(ctx, adminID, req)
}

func (m *mockInvitations) List(ctx context.Context) ([]*model.InvitationView, error) {
	return m.listFunc(ctx)
}

func (m *mockInvitations) Get(ctx context.Context, id string) (*model.InvitationView, error) {
	return m.getFunc(ctx, id)
}

func (m *mockInvitations) Resend(ctx context.Context, id string) (*model.InvitationView, error) {
	return m.resendFunc(ctx, id)
}

type mockCatalog struct {
	createFunc    func(ctx context.Context, reviewerID string, req *model.CreateSaxophoneWithReviewRequest, photo *model.PhotoUpload) (*model.SaxophoneDetail, error)
	addReviewFunc func(ctx context.Context, reviewerID, saxophoneID string, req *model.CreateReviewRequest) (*model.Review, error)
	listFunc      func(ctx context.Context, filter model.CatalogFilter) (*service.CatalogListing, error)
	getFunc       func(ctx context.Context, id string) (*model.SaxophoneDetail, error)
}

func (m *mockCatalog) CreateSaxophoneWithFirstReview(ctx context.Context, reviewerID string, req *model.CreateSaxophoneWithReviewRequest, photo *model.PhotoUpload) (*model.SaxophoneDetail, error) {
	return m.createFunc(ctx, reviewerID, req, photo)
}

func (m *mockCatalog) AddReview(ctx context.Context, reviewerID, saxophoneID string, req *model.CreateReviewRequest) (*model.Review, error) {
	return m.addReviewFunc(ctx, reviewerID, saxophoneID, req)
}

func (m *mockCatalog) ListSaxophones(ctx context.Context, filter model.CatalogFilter) (*service.CatalogListing, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockCatalog) GetSaxophone(ctx context.Context, id string) (*model.SaxophoneDetail, error) {
	return m.getFunc(ctx, id)
}

func (m *mockCatalog) GetRatingSchema() model.RatingSchemaCatalog {
	return model.GetRatingSchemaCatalog()
}

// ============================================================================
// Test Helpers
// ============================================================================

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUserContext(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// withURLParams attaches chi path parameters to a request
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func parseErrorResponse(t *testing.T, body []byte) *model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return &problem
}

func parseDataResponse(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("failed to parse data: %v", err)
	}
}
