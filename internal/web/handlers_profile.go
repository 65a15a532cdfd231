package web

import (
	"net/http"
)

const profileTileCount = 5

// handleProfile renders the listener profile: a Spotify connect prompt when
// the session holds no token, otherwise the top-track tiles and the
// recommendations section the page script fills in.
func (a *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	data := a.page(w, r, "Your Profile")

	if !session.HasToken() {
		a.render(w, "profile", data)
		return
	}

	token := session.Token()

	profile, err := a.assembler.Profile(r.Context(), token)
	if err != nil {
		a.logger.Warn("profile lookup failed", "session", session.ID(), "error", err)
		data.Connected = false
		data.Flash = &Flash{Kind: "error", Message: "Could not reach Spotify. Try reconnecting."}
		a.render(w, "profile", data)
		return
	}

	data.Profile = profile
	data.Premium = profile.IsPremium()
	if profile.DisplayName != "" {
		data.Username = profile.DisplayName
	}

	tracks, err := a.assembler.TopTracks(r.Context(), token)
	if err != nil {
		a.logger.Warn("top tracks lookup failed", "session", session.ID(), "error", err)
	} else {
		if len(tracks) > profileTileCount {
			tracks = tracks[:profileTileCount]
		}
		data.Tracks = tracks

		ids := make([]string, 0, len(tracks))
		for _, track := range tracks {
			ids = append(ids, track.ID)
		}
		session.SetTopTrackIDs(ids)
		session.SetSpotifyProfile(profile.ID, profile.DisplayName)
		if err := a.sessions.Update(session); err != nil {
			a.logger.Error("failed to persist top tracks", "session", session.ID(), "error", err)
		}
	}

	a.render(w, "profile", data)
}
