// Package api exposes the service over a JSON REST surface.
package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/rmoran/apptrack/internal/services"
	gauth "github.com/rmoran/apptrack/pkg/auth"
)

// SessionCookie is the name of the session cookie set on login.
const SessionCookie = "apptrack_session"

// oauthStateTTL bounds how long a pending Gmail consent redirect stays
// valid.
const oauthStateTTL = 10 * time.Minute

// GmailAuthorizer persists the OAuth token granted in the consent callback.
// Implemented by the Gmail scanner service.
type GmailAuthorizer interface {
	SaveToken(ctx context.Context, userID string, token *oauth2.Token) error
}

// Deps carries the collaborators the server dispatches into.
type Deps struct {
	Auth    services.AuthService
	Stores  *services.StoreManager
	Sync    services.SyncService
	Resumes services.ResumeService
	Gmail   GmailAuthorizer
	Flow    *gauth.Flow

	Logger        *log.Logger
	SecureCookies bool
	SessionTTL    time.Duration
}

type oauthState struct {
	userID  string
	expires time.Time
}

// Server routes HTTP requests to the service layer. It owns no business
// rules: every handler decodes, delegates and encodes.
type Server struct {
	auth    services.AuthService
	stores  *services.StoreManager
	sync    services.SyncService
	resumes services.ResumeService
	gmail   GmailAuthorizer
	flow    *gauth.Flow

	logger        *log.Logger
	secureCookies bool
	sessionTTL    time.Duration

	mu     sync.Mutex
	states map[string]oauthState

	mux *http.ServeMux
}

// New builds the server and registers its routes.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	sessionTTL := d.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = services.DefaultSessionTTL
	}
	s := &Server{
		auth:          d.Auth,
		stores:        d.Stores,
		sync:          d.Sync,
		resumes:       d.Resumes,
		gmail:         d.Gmail,
		flow:          d.Flow,
		logger:        logger,
		secureCookies: d.SecureCookies,
		sessionTTL:    sessionTTL,
		states:        make(map[string]oauthState),
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/check-auth", s.handleCheckAuth)

	s.mux.HandleFunc("GET /api/applications", s.requireUser(s.handleListApplications))
	s.mux.HandleFunc("POST /api/applications", s.requireUser(s.handleCreateApplication))
	s.mux.HandleFunc("PUT /api/applications/{id}", s.requireUser(s.handleUpdateApplication))
	s.mux.HandleFunc("DELETE /api/applications/{id}", s.requireUser(s.handleDeleteApplication))
	s.mux.HandleFunc("POST /api/applications/clear", s.requireUser(s.handleClearApplications))
	s.mux.HandleFunc("GET /api/dashboard", s.requireUser(s.handleDashboard))

	s.mux.HandleFunc("GET /api/auth/gmail", s.requireUser(s.handleGmailAuthURL))
	s.mux.HandleFunc("GET /api/auth/gmail/callback", s.handleGmailCallback)
	s.mux.HandleFunc("GET /api/gmail/status", s.requireUser(s.handleGmailStatus))
	s.mux.HandleFunc("POST /api/gmail/disconnect", s.requireUser(s.handleGmailDisconnect))
	s.mux.HandleFunc("POST /api/gmail/sync", s.requireUser(s.handleGmailSync))

	s.mux.HandleFunc("GET /api/resumes", s.requireUser(s.handleListResumes))
	s.mux.HandleFunc("POST /api/resumes", s.requireUser(s.handleUploadResume))
	s.mux.HandleFunc("DELETE /api/resumes/{id}", s.requireUser(s.handleDeleteResume))
	s.mux.HandleFunc("GET /api/resumes/{id}/download", s.requireUser(s.handleDownloadResume))
}

// Handler returns the routed handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
