package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/models"
	"github.com/rmoran/apptrack/internal/services"
)

// stubSync implements services.SyncService with canned results.
type stubSync struct {
	result services.SyncResult
	err    error
	linked map[string]bool
}

func (s *stubSync) Sync(ctx context.Context, store *services.ApplicationStore) (services.SyncResult, error) {
	if s.err != nil {
		return services.SyncResult{}, s.err
	}
	return s.result, nil
}

func (s *stubSync) Linked(ctx context.Context, userID string) bool {
	return s.linked[userID]
}

func (s *stubSync) Disconnect(ctx context.Context, userID string) error {
	delete(s.linked, userID)
	return nil
}

// stubResumes implements services.ResumeService in memory.
type stubResumes struct {
	byUser map[string][]models.Resume
	nextID int
}

func newStubResumes() *stubResumes {
	return &stubResumes{byUser: make(map[string][]models.Resume)}
}

func (s *stubResumes) Upload(ctx context.Context, userID, name, version, contentType string, size int64, body io.Reader) (models.Resume, error) {
	if userID == "" {
		return models.Resume{}, services.ErrUnauthenticated
	}
	s.nextID++
	resume := models.Resume{
		ID:         fmt.Sprintf("res-%d", s.nextID),
		UserID:     userID,
		Name:       name,
		Version:    version,
		UploadedAt: time.Now(),
		SizeBytes:  size,
	}
	s.byUser[userID] = append(s.byUser[userID], resume)
	return resume, nil
}

func (s *stubResumes) List(ctx context.Context, userID string) ([]models.Resume, error) {
	return s.byUser[userID], nil
}

func (s *stubResumes) Delete(ctx context.Context, userID, id string) error {
	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			s.byUser[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}

func (s *stubResumes) DownloadURL(ctx context.Context, userID, id string) (string, error) {
	for _, resume := range s.byUser[userID] {
		if resume.ID == id {
			return "https://blobs.test/" + resume.ID, nil
		}
	}
	return "", services.ErrNotFound
}

type stubAuthorizer struct {
	saved map[string]*oauth2.Token
}

func (s *stubAuthorizer) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	if s.saved == nil {
		s.saved = make(map[string]*oauth2.Token)
	}
	s.saved[userID] = token
	return nil
}

type testEnv struct {
	server  *Server
	ts      *httptest.Server
	sync    *stubSync
	resumes *stubResumes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "apptrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	syncStub := &stubSync{linked: make(map[string]bool)}
	resumeStub := newStubResumes()

	srv := New(Deps{
		Auth:    services.NewAuthService(store),
		Stores:  services.NewStoreManager(services.NewApplicationRepository(store)),
		Sync:    syncStub,
		Resumes: resumeStub,
		Gmail:   &stubAuthorizer{},
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{server: srv, ts: ts, sync: syncStub, resumes: resumeStub}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) register(t *testing.T, username, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decodeBody[sessionResponse](t, resp)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	token := env.register(t, "rosa", "rosa@example.com")

	resp := env.do(t, http.MethodGet, "/api/check-auth", token, nil)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, true, body["authenticated"])

	// duplicate email
	resp = env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "other", "email": "rosa@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// wrong password
	resp = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "rosa@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// logout kills the session
	resp = env.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/check-auth", token, nil)
	body = decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, body["authenticated"])
}

func TestApplicationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/applications"},
		{http.MethodPost, "/api/applications"},
		{http.MethodPut, "/api/applications/x"},
		{http.MethodDelete, "/api/applications/x"},
		{http.MethodPost, "/api/applications/clear"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodPost, "/api/gmail/sync"},
		{http.MethodGet, "/api/resumes"},
	} {
		resp := env.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		resp.Body.Close()
	}
}

func TestApplicationCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	resp := env.do(t, http.MethodPost, "/api/applications", token, map[string]string{
		"company":          "Acme",
		"position":         "Engineer",
		"application_date": "2025-03-10",
		"status":           "applied",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Application](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Acme", created.Company)
	assert.Equal(t, models.StatusApplied, created.Status)

	resp = env.do(t, http.MethodGet, "/api/applications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]models.Application](t, resp)
	require.Len(t, listed, 1)

	resp = env.do(t, http.MethodPut, "/api/applications/"+created.ID, token, map[string]string{
		"status": "interview",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[models.Application](t, resp)
	assert.Equal(t, models.StatusInterview, updated.Status)
	assert.Equal(t, "Acme", updated.Company)

	resp = env.do(t, http.MethodPut, "/api/applications/ghost", token, map[string]string{"status": "offer"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/api/applications/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/applications", token, nil)
	listed = decodeBody[[]models.Application](t, resp)
	assert.Empty(t, listed)
}

func TestApplicationValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	// missing company is rejected remotely
	resp := env.do(t, http.MethodPost, "/api/applications", token, map[string]string{
		"position": "Engineer",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// bad date
	resp = env.do(t, http.MethodPost, "/api/applications", token, map[string]string{
		"company": "Acme", "position": "Engineer", "application_date": "soonish",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestClearApplications(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/applications", token, map[string]string{
			"company": fmt.Sprintf("Company %d", i), "position": "Engineer",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := env.do(t, http.MethodPost, "/api/applications/clear", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/applications", token, nil)
	listed := decodeBody[[]models.Application](t, resp)
	assert.Empty(t, listed)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	// empty dashboard: zero rates, needle at rest
	resp := env.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decodeBody[map[string]any](t, resp)
	assert.Equal(t, float64(0), empty["total_applications"])
	assert.Equal(t, float64(0), empty["success_rate"])
	assert.Equal(t, float64(-90), empty["success_gauge_rotation"])

	for _, status := range []string{"applied", "interview", "offer", "rejected"} {
		resp := env.do(t, http.MethodPost, "/api/applications", token, map[string]string{
			"company": "Acme", "position": "Engineer", "status": status,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = env.do(t, http.MethodGet, "/api/dashboard", token, nil)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, float64(4), body["total_applications"])
	assert.Equal(t, float64(50), body["success_rate"])
	assert.Equal(t, float64(25), body["offer_rate"])
	assert.Equal(t, float64(0), body["success_gauge_rotation"])
}

func TestUsersAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	tokenA := env.register(t, "alice", "alice@example.com")
	tokenB := env.register(t, "bob", "bob@example.com")

	resp := env.do(t, http.MethodPost, "/api/applications", tokenA, map[string]string{
		"company": "Acme", "position": "Engineer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Application](t, resp)

	resp = env.do(t, http.MethodGet, "/api/applications", tokenB, nil)
	listed := decodeBody[[]models.Application](t, resp)
	assert.Empty(t, listed, "user B cannot see user A's records")

	resp = env.do(t, http.MethodDelete, "/api/applications/"+created.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGmailEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	resp := env.do(t, http.MethodGet, "/api/gmail/status", token, nil)
	status := decodeBody[map[string]bool](t, resp)
	assert.False(t, status["linked"])

	env.sync.result = services.SyncResult{NewlyAdded: 2}
	resp = env.do(t, http.MethodPost, "/api/gmail/sync", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[services.SyncResult](t, resp)
	assert.Equal(t, 2, result.NewlyAdded)

	env.sync.err = services.ErrGmailNotLinked
	resp = env.do(t, http.MethodPost, "/api/gmail/sync", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	env.sync.err = services.ErrRemoteUnavailable
	resp = env.do(t, http.MethodPost, "/api/gmail/sync", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/gmail/disconnect", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// no flow configured
	resp = env.do(t, http.MethodGet, "/api/auth/gmail", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestResumeEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	// multipart upload
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF fake"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("version", "v2"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/resumes", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uploaded := decodeBody[models.Resume](t, resp)
	assert.Equal(t, "resume.pdf", uploaded.Name)
	assert.Equal(t, "v2", uploaded.Version)

	resp = env.do(t, http.MethodGet, "/api/resumes", token, nil)
	listed := decodeBody[[]models.Resume](t, resp)
	require.Len(t, listed, 1)

	resp = env.do(t, http.MethodGet, "/api/resumes/"+uploaded.ID+"/download", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	download := decodeBody[map[string]string](t, resp)
	assert.Contains(t, download["url"], uploaded.ID)

	resp = env.do(t, http.MethodDelete, "/api/resumes/"+uploaded.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/api/resumes/"+uploaded.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSessionCookieAuth(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "rosa", "rosa@example.com")

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/applications", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
