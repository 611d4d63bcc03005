package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rmoran/apptrack/internal/models"
)

// userHandler is a handler that runs with a resolved, authenticated user.
type userHandler func(w http.ResponseWriter, r *http.Request, user models.User)

// requireUser resolves the session token and rejects the request with 401
// when it does not map to a live session.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.UserFromToken(r.Context(), sessionToken(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		next(w, r, user)
	}
}

// sessionToken extracts the session token from the Authorization header or
// the session cookie. The header wins when both are present.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessionTTL),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
