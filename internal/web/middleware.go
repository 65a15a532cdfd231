package web

import (
	"context"
	"net/http"

	"github.com/desertthunder/customify/internal/models"
)

type contextKey int

const sessionContextKey contextKey = iota

// WithSession loads the session named by the signed cookie and stores it on
// the request context. Requests without a valid cookie pass through with no
// session; handlers that need one use [App.requireSession].
//
// An expired Spotify access token is refreshed transparently here. When the
// refresh fails the token pair is cleared so the profile page falls back to
// the connect prompt instead of failing every API call.
func (a *App) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := a.cookies.ReadCookie(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		session, err := a.sessions.Get(sessionID)
		if err != nil || session.Expired() {
			a.cookies.ClearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		if session.HasToken() && session.TokenExpired() {
			a.refreshToken(r.Context(), session)
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// refreshToken replaces the session's token pair in place, clearing it when
// the provider rejects the refresh.
func (a *App) refreshToken(ctx context.Context, session *models.Session) {
	fresh, err := a.svc.Refresh(ctx, session.Token())
	if err != nil {
		a.logger.Warn("token refresh failed, clearing pair", "session", session.ID(), "error", err)
		session.ClearToken()
	} else {
		session.SetToken(fresh)
	}

	if err := a.sessions.Update(session); err != nil {
		a.logger.Error("failed to persist refreshed token", "session", session.ID(), "error", err)
	}
}

// sessionFrom returns the request's session, or nil when unauthenticated.
func sessionFrom(r *http.Request) *models.Session {
	session, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return session
}

// requireSession returns the session or redirects to the login page.
func (a *App) requireSession(w http.ResponseWriter, r *http.Request) *models.Session {
	session := sessionFrom(r)
	if session == nil {
		setFlash(w, "error", "Please log in first.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil
	}
	return session
}
