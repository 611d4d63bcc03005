package api

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

func (s *Server) handleGmailAuthURL(w http.ResponseWriter, r *http.Request, user models.User) {
	if s.flow == nil {
		writeError(w, http.StatusServiceUnavailable, "gmail integration is not configured")
		return
	}

	state, err := newOAuthState()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.mu.Lock()
	s.pruneStatesLocked()
	s.states[state] = oauthState{userID: user.ID, expires: time.Now().Add(oauthStateTTL)}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"auth_url": s.flow.AuthURL(state)})
}

// handleGmailCallback lands the browser redirect from Google's consent
// screen. The state parameter, not the session, identifies the user: the
// redirect may arrive without our cookie attached.
func (s *Server) handleGmailCallback(w http.ResponseWriter, r *http.Request) {
	if s.flow == nil {
		writeError(w, http.StatusServiceUnavailable, "gmail integration is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "missing state or code")
		return
	}

	s.mu.Lock()
	pending, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()
	if !ok || time.Now().After(pending.expires) {
		writeError(w, http.StatusBadRequest, "unknown or expired state")
		return
	}

	token, err := s.flow.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Printf("gmail oauth exchange failed: %v", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	if err := s.gmail.SaveToken(r.Context(), pending.userID, token); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"linked": true})
}

func (s *Server) handleGmailStatus(w http.ResponseWriter, r *http.Request, user models.User) {
	writeJSON(w, http.StatusOK, map[string]bool{"linked": s.sync.Linked(r.Context(), user.ID)})
}

func (s *Server) handleGmailDisconnect(w http.ResponseWriter, r *http.Request, user models.User) {
	if err := s.sync.Disconnect(r.Context(), user.ID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGmailSync(w http.ResponseWriter, r *http.Request, user models.User) {
	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	result, err := s.sync.Sync(r.Context(), store)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func newOAuthState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// pruneStatesLocked drops expired consent states. Caller holds s.mu.
func (s *Server) pruneStatesLocked() {
	now := time.Now()
	for state, pending := range s.states {
		if now.After(pending.expires) {
			delete(s.states, state)
		}
	}
}
