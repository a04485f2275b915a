package applications

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/common/validation"
	"incubator-portal/internal/models"

	"github.com/stretchr/testify/require"
)

const (
	adminToken     = "admin-token"
	mentorToken    = "mentor-token"
	applicantToken = "applicant-token"
)

// stubVerifier accepts a fixed set of tokens.
type stubVerifier map[string]models.TokenClaims

func (v stubVerifier) Verify(_ context.Context, token string) (models.TokenClaims, error) {
	claims, ok := v[token]
	if !ok {
		return models.TokenClaims{}, apperrors.NewUnauthenticatedError("unknown token")
	}
	return claims, nil
}

func testVerifier() stubVerifier {
	return stubVerifier{
		adminToken:     {Identity: "admin-1", Role: "admin", ExpiresAt: 1900000000},
		mentorToken:    {Identity: "mentor-1", Role: "mentor"},
		applicantToken: {Identity: "applicant-1", Role: "applicant"},
		"bogus-role":   {Identity: "x", Role: "superuser"},
	}
}

// memoryRevoker is an in-process revocation list.
type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{revoked: make(map[string]bool)}
}

func (r *memoryRevoker) Revoke(_ context.Context, token string, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = true
	return nil
}

func (r *memoryRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.revoked[token], nil
}

// countingStore counts store traffic and can inject failures.
type countingStore struct {
	store.Store

	mu        sync.Mutex
	reads     int
	writes    int
	insertErr error
	lookupErr error
}

func (c *countingStore) Insert(ctx context.Context, app *models.Application) (*models.Application, error) {
	c.mu.Lock()
	c.writes++
	err := c.insertErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Store.Insert(ctx, app)
}

func (c *countingStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	c.mu.Lock()
	c.reads++
	err := c.lookupErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Store.FindByID(ctx, id)
}

func (c *countingStore) FindByField(ctx context.Context, field, value string) (*models.Application, error) {
	c.mu.Lock()
	c.reads++
	err := c.lookupErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Store.FindByField(ctx, field, value)
}

func (c *countingStore) UpdateStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Application, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.UpdateStatus(ctx, id, status, at)
}

func (c *countingStore) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads, c.writes
}

func (c *countingStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads, c.writes = 0, 0
}

// fakeIndexer records indexed documents and answers searches from them.
type fakeIndexer struct {
	mu       sync.Mutex
	indexed  map[string]*models.Application
	indexErr error
	hits     []string
	lastQ    models.SearchQuery
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: make(map[string]*models.Application)}
}

func (f *fakeIndexer) IndexApplication(_ context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed[app.ApplicationID] = app.Clone()
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q models.SearchQuery) ([]string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = q
	return f.hits, len(f.hits), nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event models.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	store     *countingStore
	service   *Service
	authority *Authority
	issuer    *Issuer
	gate      *Gate
	indexer   *fakeIndexer
	publisher *fakePublisher
	revoker   *memoryRevoker
}

func setupService(t *testing.T, table TransitionTable) *testEnv {
	t.Helper()
	log := logger.NewTestLogger(t)

	st := &countingStore{Store: store.NewMemoryStore()}
	validator, err := validation.NewSubmissionValidator()
	require.NoError(t, err)

	revoker := newMemoryRevoker()
	gate := NewGate(testVerifier(), revoker, nil)
	issuer := NewIssuer(st, DefaultMaxAttempts, log)
	authority := NewAuthority(st, table, log)
	indexer := newFakeIndexer()
	publisher := &fakePublisher{}

	svc := NewService(Deps{
		Store:        st,
		Gate:         gate,
		Issuer:       issuer,
		Authority:    authority,
		Validator:    validator,
		Indexer:      indexer,
		Publisher:    publisher,
		Revoker:      revoker,
		StoreTimeout: time.Second,
	}, log)

	return &testEnv{
		store:     st,
		service:   svc,
		authority: authority,
		issuer:    issuer,
		gate:      gate,
		indexer:   indexer,
		publisher: publisher,
		revoker:   revoker,
	}
}

func validFields() models.SubmissionFields {
	return models.SubmissionFields{
		ApplicationEmail: "a@b.com",
		ApplicationPhone: "123",
		ProgramApplied:   "Accel",
		StartupName:      "Acme",
		Description:      "x",
	}
}

// seed inserts a Pending record directly into the store.
func seed(t *testing.T, s store.Store, applicationID string, submitted time.Time) *models.Application {
	t.Helper()
	app, err := s.Insert(context.Background(), &models.Application{
		ApplicationID:    applicationID,
		ApplicationEmail: "seed@example.com",
		ApplicationPhone: "555",
		ProgramApplied:   "Seed",
		StartupName:      fmt.Sprintf("Startup %s", applicationID),
		Status:           models.StatusPending,
		SubmissionDate:   submitted,
		UpdatedDateTime:  submitted,
	})
	require.NoError(t, err)
	return app
}

// scriptedReader returns the given chunks in order, one per Read call.
type scriptedReader struct {
	chunks [][]byte
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, fmt.Errorf("scripted reader exhausted")
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}
