package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/storage"
	"github.com/truetone/api/pkg/jwt"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockTokenRepo struct {
	createRefreshTokenFunc    func(ctx context.Context, token *model.RefreshToken) error
	getRefreshTokenByHashFunc func(ctx context.Context, hash string) (*model.RefreshToken, error)
	revokeRefreshTokenFunc    func(ctx context.Context, hash string) error
	revokeAllUserTokensFunc   func(ctx context.Context, userID string) error
	deleteExpiredTokensFunc   func(ctx context.Context) error
}

func (m *mockTokenRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	if m.createRefreshTokenFunc != nil {
		return m.createRefreshTokenFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	if m.getRefreshTokenByHashFunc != nil {
		return m.getRefreshTokenByHashFunc(ctx, hash)
	}
	return nil, nil
}

func (m *mockTokenRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	if m.revokeRefreshTokenFunc != nil {
		return m.revokeRefreshTokenFunc(ctx, hash)
	}
	return nil
}

func (m *mockTokenRepo) RevokeAllUserTokens(ctx context.Context, userID string) error {
	if m.revokeAllUserTokensFunc != nil {
		return m.revokeAllUserTokensFunc(ctx, userID)
	}
	return nil
}

func (m *mockTokenRepo) DeleteExpiredTokens(ctx context.Context) error {
	if m.deleteExpiredTokensFunc != nil {
		return m.deleteExpiredTokensFunc(ctx)
	}
	return nil
}

// mockUserRepo is an in-memory identity store
type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int
	creates int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
	}
	m.nextID++
	m.creates++
	user.ID = fmt.Sprintf("user:%d", m.nextID)
	user.CreatedOn = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, userID string) error {
	return nil
}

// mockProfileRepo is an in-memory profile store. Batched creates are
// recorded and applied when the mock database commits.
type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	pending  []*model.Profile
	getErr   error
}

func newMockProfileRepo(profiles ...*model.Profile) *mockProfileRepo {
	m := &mockProfileRepo{profiles: make(map[string]*model.Profile)}
	for _, p := range profiles {
		m.profiles[p.UserID] = p
	}
	return m
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *mockProfileRepo) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.Profile)
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[profile.UserID]; exists {
		return fmt.Errorf("%w: profile already exists", database.ErrDuplicate)
	}
	profile.ID = "profile:" + strings.TrimPrefix(profile.UserID, "user:")
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) SetRole(ctx context.Context, userID string, role model.ProfileRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.profiles[userID]; p != nil {
		p.Role = role
	}
	return nil
}

func (m *mockProfileRepo) AddCreateToBatch(batch *database.AtomicBatch, profile *model.Profile) {
	batch.Add("CREATE profile CONTENT $profile", map[string]interface{}{"user": profile.UserID})
	m.mu.Lock()
	m.pending = append(m.pending, profile)
	m.mu.Unlock()
}

func (m *mockProfileRepo) commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pending {
		p.ID = "profile:" + strings.TrimPrefix(p.UserID, "user:")
		m.profiles[p.UserID] = p
	}
	m.pending = nil
}

func (m *mockProfileRepo) rollback() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// mockInvitationRepo is an in-memory invitation store that enforces one
// pending or accepted invitation per email
type mockInvitationRepo struct {
	mu          sync.Mutex
	invitations map[string]*model.Invitation
	nextID      int
	marked      []string
	accepts     []acceptCall
}

type acceptCall struct {
	id     string
	userID string
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[string]*model.Invitation)}
}

func (m *mockInvitationRepo) put(inv *model.Invitation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *inv
	m.invitations[inv.ID] = &c
}

func (m *mockInvitationRepo) stored(id string) *model.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invitations[id]; ok {
		c := *inv
		return &c
	}
	return nil
}

func (m *mockInvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invitations {
		if existing.Email == inv.Email && existing.Status.IsLive() {
			return fmt.Errorf("%w: live invitation exists for email", database.ErrDuplicate)
		}
	}
	m.nextID++
	inv.ID = fmt.Sprintf("invitation:key-%d", m.nextID)
	inv.Status = model.InvitationPending
	c := *inv
	m.invitations[inv.ID] = &c
	return nil
}

func (m *mockInvitationRepo) GetByID(ctx context.Context, id string) (*model.Invitation, error) {
	if !strings.HasPrefix(id, "invitation:") {
		id = "invitation:" + id
	}
	return m.stored(id), nil
}

func (m *mockInvitationRepo) GetPendingByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Email == email && inv.Status == model.InvitationPending {
			c := *inv
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockInvitationRepo) GetAcceptedByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Email == email && inv.Status == model.InvitationAccepted {
			c := *inv
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockInvitationRepo) List(ctx context.Context) ([]*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Invitation, 0, len(m.invitations))
	for _, inv := range m.invitations {
		c := *inv
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	return out, nil
}

func (m *mockInvitationRepo) MarkExpired(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	if inv, ok := m.invitations[id]; ok && inv.Status == model.InvitationPending {
		inv.Status = model.InvitationExpired
	}
	return nil
}

func (m *mockInvitationRepo) Renew(ctx context.Context, id string, createdOn, expiresOn time.Time) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status != model.InvitationExpired {
		return nil, nil
	}
	for _, other := range m.invitations {
		if other.ID != id && other.Email == inv.Email && other.Status.IsLive() {
			return nil, fmt.Errorf("%w: live invitation exists for email", database.ErrDuplicate)
		}
	}
	inv.Status = model.InvitationPending
	inv.CreatedOn = createdOn
	inv.ExpiresOn = expiresOn
	c := *inv
	return &c, nil
}

func (m *mockInvitationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inv := range m.invitations {
		if inv.Status == model.InvitationPending && inv.ExpiresOn.Before(now) {
			inv.Status = model.InvitationExpired
			n++
		}
	}
	return n, nil
}

func (m *mockInvitationRepo) AddAcceptToBatch(batch *database.AtomicBatch, id, userID string) {
	batch.Add("UPDATE invitation SET status = 'accepted'", map[string]interface{}{"key": id})
	m.mu.Lock()
	m.accepts = append(m.accepts, acceptCall{id: id, userID: userID})
	m.mu.Unlock()
}

// commit applies queued accepts, failing like the store guard does when
// an invitation is no longer pending
func (m *mockInvitationRepo) commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.accepts = nil }()
	for _, a := range m.accepts {
		inv := m.invitations[a.id]
		if inv == nil || inv.Status != model.InvitationPending {
			return fmt.Errorf("%w: invitation is no longer pending", database.ErrQuery)
		}
	}
	now := time.Now()
	for _, a := range m.accepts {
		inv := m.invitations[a.id]
		inv.Status = model.InvitationAccepted
		inv.AcceptedOn = &now
		by := a.userID
		inv.AcceptedBy = &by
	}
	return nil
}

// mockSaxophoneRepo is an in-memory catalog record store
type mockSaxophoneRepo struct {
	mu         sync.Mutex
	saxophones []*model.Saxophone
	createErr  error
}

func (m *mockSaxophoneRepo) Create(ctx context.Context, sax *model.Saxophone) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sax.ID = fmt.Sprintf("saxophone:%d", len(m.saxophones)+1)
	sax.CreatedOn = time.Now()
	m.saxophones = append(m.saxophones, sax)
	return nil
}

func (m *mockSaxophoneRepo) GetByID(ctx context.Context, id string) (*model.Saxophone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saxophones {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockSaxophoneRepo) List(ctx context.Context) ([]*model.Saxophone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Saxophone, len(m.saxophones))
	copy(out, m.saxophones)
	return out, nil
}

// mockReviewRepo is an in-memory review store
type mockReviewRepo struct {
	mu        sync.Mutex
	reviews   []*model.Review
	createErr error
}

func (m *mockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	review.ID = fmt.Sprintf("review:%d", len(m.reviews)+1)
	review.CreatedOn = time.Now()
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockReviewRepo) ListBySaxophone(ctx context.Context, saxophoneID string) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Review
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].SaxophoneID == saxophoneID {
			out = append(out, m.reviews[i])
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListAll(ctx context.Context) (map[string][]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]*model.Review)
	for _, r := range m.reviews {
		out[r.SaxophoneID] = append(out[r.SaxophoneID], r)
	}
	return out, nil
}

func (m *mockReviewRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}

// mockDB commits batches by calling back into the in-memory repositories
type mockDB struct {
	queryFunc func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	queries   []string
}

func (m *mockDB) Connect(ctx context.Context) error { return nil }
func (m *mockDB) Close() error                      { return nil }
func (m *mockDB) Ping(ctx context.Context) error    { return nil }

func (m *mockDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	m.queries = append(m.queries, query)
	if m.queryFunc != nil {
		return m.queryFunc(ctx, query, vars)
	}
	return nil, nil
}

func (m *mockDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := m.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return database.FirstRecord(results)
}

func (m *mockDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := m.Query(ctx, query, vars)
	return err
}

// mockStorage records uploads
type mockStorage struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	uploadErr error
}

func (m *mockStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploads == nil {
		m.uploads = make(map[string][]byte)
	}
	m.uploads[input.Key] = data
	return &storage.UploadResult{Key: input.Key, URL: "https://cdn.test/" + input.Key}, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.uploads, key)
	return nil
}

func (m *mockStorage) GetURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func createTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return jwt.NewTestService(privateKey, "test-issuer", time.Hour)
}

// testClock is a settable clock for invitation expiry tests
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
