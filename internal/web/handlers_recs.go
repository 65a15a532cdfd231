package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/customify/internal/recommend"
	"github.com/desertthunder/customify/internal/shared"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleRecommendationsAPI feeds the profile page script. Authentication
// failures answer with a JSON error; provider failures answer with an empty
// list so the page renders a soft message instead of breaking.
func (a *App) handleRecommendationsAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.HasToken() {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	tracks := a.assembler.FromTopTracks(r.Context(), session.Token(), session.TopTrackIDs())
	respondJSON(w, http.StatusOK, tracks)
}

func (a *App) handleCustomizeForm(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	data := a.page(w, r, "Customize Recommendations")
	if !session.HasToken() {
		setFlash(w, "error", "Connect your Spotify account first.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	data.Form = map[string]string{}
	a.render(w, "customize", data)
}

func (a *App) handleCustomize(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	if !session.HasToken() {
		setFlash(w, "error", "Connect your Spotify account first.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	trackLink := strings.TrimSpace(r.PostFormValue("track_link"))
	artistLink := strings.TrimSpace(r.PostFormValue("artist_link"))

	data := a.page(w, r, "Customize Recommendations")
	data.Form = map[string]string{"track_link": trackLink, "artist_link": artistLink}

	params, err := parseTunables(r)
	if err != nil {
		data.Errors = append(data.Errors, err.Error())
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.render(w, "customize", data)
		return
	}

	tracks, err := a.assembler.Customized(r.Context(), session.Token(), trackLink, artistLink, params)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidLink):
			data.Errors = append(data.Errors, "Paste a valid open.spotify.com track link (and optionally an artist link).")
		case errors.Is(err, shared.ErrInvalidInput):
			data.Errors = append(data.Errors, err.Error())
		default:
			a.logger.Warn("customized recommendations failed", "error", err)
			data.Errors = append(data.Errors, "Could not fetch recommendations. Try again.")
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.render(w, "customize", data)
		return
	}

	result := a.page(w, r, "Your Recommendations")
	result.Tracks = tracks
	a.render(w, "recommendations", result)
}

// tunableFields maps form field names to setters on [recommend.TunableParams].
var tunableFields = []struct {
	name string
	set  func(*recommend.TunableParams, float64)
}{
	{"acousticness", func(p *recommend.TunableParams, v float64) { p.UseAcousticness, p.Acousticness = true, v }},
	{"danceability", func(p *recommend.TunableParams, v float64) { p.UseDanceability, p.Danceability = true, v }},
	{"energy", func(p *recommend.TunableParams, v float64) { p.UseEnergy, p.Energy = true, v }},
	{"instrumentalness", func(p *recommend.TunableParams, v float64) { p.UseInstrumentalness, p.Instrumentalness = true, v }},
	{"liveness", func(p *recommend.TunableParams, v float64) { p.UseLiveness, p.Liveness = true, v }},
	{"loudness", func(p *recommend.TunableParams, v float64) { p.UseLoudness, p.Loudness = true, v }},
	{"speechiness", func(p *recommend.TunableParams, v float64) { p.UseSpeechiness, p.Speechiness = true, v }},
	{"tempo", func(p *recommend.TunableParams, v float64) { p.UseTempo, p.Tempo = true, v }},
	{"valence", func(p *recommend.TunableParams, v float64) { p.UseValence, p.Valence = true, v }},
	{"popularity", func(p *recommend.TunableParams, v float64) { p.UsePopularity, p.Popularity = true, int(v) }},
}

// parseTunables reads the use_* checkboxes and their values from the form.
func parseTunables(r *http.Request) (recommend.TunableParams, error) {
	var params recommend.TunableParams

	for _, field := range tunableFields {
		if r.PostFormValue("use_"+field.name) == "" {
			continue
		}

		raw := strings.TrimSpace(r.PostFormValue(field.name))
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, errors.New("Enter a numeric value for " + field.name + ".")
		}
		field.set(&params, value)
	}

	return params, nil
}

type playlistRequest struct {
	Name string   `json:"name"`
	URIs []string `json:"uris"`
}

func (a *App) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.HasToken() {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URIs) == 0 {
		jsonError(w, http.StatusBadRequest, "a non-empty uris list is required")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultPlaylistName
	}

	playlist, err := a.svc.CreatePlaylist(r.Context(), session.Token(), name, "Assembled by Customify", req.URIs)
	if err != nil {
		a.logger.Error("playlist creation failed", "error", err)
		jsonError(w, http.StatusBadGateway, "could not create playlist")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":   playlist.ID,
		"name": playlist.Name,
		"url":  playlist.URL,
	})
}

type queueRequest struct {
	URIs []string `json:"uris"`
}

// handleQueue adds tracks to the playback queue. The capability is gated on
// Premium both here and in the page script.
func (a *App) handleQueue(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.HasToken() {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URIs) == 0 {
		jsonError(w, http.StatusBadRequest, "a non-empty uris list is required")
		return
	}

	token := session.Token()

	profile, err := a.assembler.Profile(r.Context(), token)
	if err != nil {
		a.logger.Error("premium check failed", "error", err)
		jsonError(w, http.StatusBadGateway, "could not verify subscription")
		return
	}
	if !profile.IsPremium() {
		jsonError(w, http.StatusForbidden, shared.ErrPremiumRequired.Error())
		return
	}

	queued := 0
	for _, uri := range req.URIs {
		if err := a.svc.QueueTrack(r.Context(), token, uri); err != nil {
			a.logger.Warn("queue add failed", "uri", uri, "error", err)
			continue
		}
		queued++
	}

	if queued == 0 {
		jsonError(w, http.StatusBadGateway, "could not queue any tracks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"queued": queued})
}
