package web

import (
	"net/http"
)

func (a *App) handleSpotifyLogin(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	state := a.states.Issue()
	http.Redirect(w, r, a.svc.AuthURL(state), http.StatusSeeOther)
}

func (a *App) handleSpotifyCallback(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		a.logger.Warn("spotify authorization denied", "error", errParam)
		setFlash(w, "error", "Spotify authorization failed: "+errParam)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	if !a.states.Consume(query.Get("state")) {
		setFlash(w, "error", "Authorization state mismatch. Try connecting again.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		setFlash(w, "error", "Spotify did not return an authorization code.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	token, err := a.svc.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("code exchange failed", "error", err)
		setFlash(w, "error", "Could not complete Spotify login.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	session.SetToken(token)

	if profile, err := a.svc.Profile(r.Context(), token); err == nil {
		session.SetSpotifyProfile(profile.ID, profile.DisplayName)
	} else {
		a.logger.Warn("failed to fetch spotify profile after login", "error", err)
	}

	if err := a.sessions.Update(session); err != nil {
		a.logger.Error("failed to persist token", "session", session.ID(), "error", err)
		setFlash(w, "error", "Could not save your Spotify login.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Connected to Spotify.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
