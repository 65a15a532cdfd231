// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/customify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// DefaultTimeRange is the top-tracks window used when none (or an invalid one) is given.
const DefaultTimeRange = "short_term"

var validTimeRanges = map[string]bool{
	"short_term":  true,
	"medium_term": true,
	"long_term":   true,
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Popularity   int             `json:"popularity"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifySimpleTrack represents a track within an album listing (no album or popularity fields).
type SpotifySimpleTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifyPaginatedTracks represents a paginated response of full track objects.
type SpotifyPaginatedTracks struct {
	Items    []SpotifyTrack `json:"items"`
	Total    int            `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
}

// SpotifyPlaylist represents a created playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// StatusError is returned for non-2xx Spotify responses.
//
// It unwraps to [shared.ErrRateLimited] for 429, [shared.ErrTokenExpired] for
// 401, and [shared.ErrAPIRequest] otherwise, so call sites can branch with
// errors.Is without string matching.
type StatusError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: status %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("spotify API error: status %d on %s", e.StatusCode, e.Endpoint)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusUnauthorized:
		return shared.ErrTokenExpired
	default:
		return shared.ErrAPIRequest
	}
}

// SpotifyService implements [Service] for Spotify Web API interactions.
// Uses [oauth2] for the authorization code flow and token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/auth/spotify/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-top-read",
			"playlist-modify-public",
			"playlist-modify-private",
			"user-modify-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token pair.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh token pair from the stored refresh token.
func (s *SpotifyService) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	fresh, err := s.config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return fresh, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
// body, when non-nil, is JSON-encoded; result, when non-nil, receives the decoded response.
func (s *SpotifyService) doRequest(ctx context.Context, token *oauth2.Token, method, endpoint string, body any, result any) error {
	if token == nil || token.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	apiURL := spotifyBaseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil {
			serr.Message = apiErr.Error.Message
		}
		return fmt.Errorf("%w", serr)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, token, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		Followers:   user.Followers.Total,
	}
	if len(user.Images) > 0 {
		profile.ImageURL = user.Images[0].URL
	}
	if profile.DisplayName == "" {
		profile.DisplayName = user.ID
	}

	return profile, nil
}

// TopTracks retrieves the user's most played tracks.
// Invalid time ranges fall back to [DefaultTimeRange]; limit is clamped to the API maximum of 50.
func (s *SpotifyService) TopTracks(ctx context.Context, token *oauth2.Token, limit int, timeRange string) ([]Track, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	if !validTimeRanges[timeRange] {
		timeRange = DefaultTimeRange
	}

	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", limit, timeRange)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Items))
	for _, st := range response.Items {
		tracks = append(tracks, viewTrack(st))
	}

	return tracks, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, token *oauth2.Token, trackID string) (*Track, error) {
	var st SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &st); err != nil {
		return nil, err
	}

	track := viewTrack(st)
	return &track, nil
}

// SeveralTracks retrieves multiple tracks by their IDs (up to 50).
func (s *SpotifyService) SeveralTracks(ctx context.Context, token *oauth2.Token, trackIDs []string) ([]Track, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("no track IDs provided")
	}
	if len(trackIDs) > 50 {
		return nil, fmt.Errorf("maximum 50 track IDs allowed")
	}

	ids := strings.Join(trackIDs, ",")
	endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(ids))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks))
	for _, st := range response.Tracks {
		tracks = append(tracks, viewTrack(st))
	}

	return tracks, nil
}

// ArtistAlbums retrieves an artist's albums (up to 50 per call).
func (s *SpotifyService) ArtistAlbums(ctx context.Context, token *oauth2.Token, artistID string, limit int) ([]AlbumRef, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?limit=%d", artistID, limit)

	var response struct {
		Items []SpotifyAlbum `json:"items"`
	}

	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	albums := make([]AlbumRef, 0, len(response.Items))
	for _, album := range response.Items {
		albums = append(albums, AlbumRef{ID: album.ID, Name: album.Name})
	}

	return albums, nil
}

// AlbumTracks retrieves the simplified track listing of an album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, token *oauth2.Token, albumID string) ([]TrackRef, error) {
	endpoint := fmt.Sprintf("/albums/%s/tracks", albumID)

	var response struct {
		Items []SpotifySimpleTrack `json:"items"`
	}

	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]TrackRef, 0, len(response.Items))
	for _, st := range response.Items {
		tracks = append(tracks, TrackRef{ID: st.ID, Name: st.Name, URI: st.URI})
	}

	return tracks, nil
}

// Recommendations retrieves seeded recommendations with optional tunable audio-feature parameters.
func (s *SpotifyService) Recommendations(ctx context.Context, token *oauth2.Token, query RecommendationQuery) ([]Track, error) {
	if len(query.SeedTracks) == 0 && len(query.SeedArtists) == 0 {
		return nil, fmt.Errorf("at least one seed is required")
	}

	params := url.Values{}
	if len(query.SeedTracks) > 0 {
		params.Set("seed_tracks", strings.Join(query.SeedTracks, ","))
	}
	if len(query.SeedArtists) > 0 {
		params.Set("seed_artists", strings.Join(query.SeedArtists, ","))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	params.Set("limit", fmt.Sprintf("%d", limit))

	for name, value := range query.Tunables {
		params.Set(name, value)
	}

	endpoint := "/recommendations?" + params.Encode()

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks))
	for _, st := range response.Tracks {
		tracks = append(tracks, viewTrack(st))
	}

	return tracks, nil
}

// CreatePlaylist creates a playlist for the authenticated user and adds the given track URIs.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, token *oauth2.Token, name, description string, trackURIs []string) (*Playlist, error) {
	if len(trackURIs) == 0 {
		return nil, fmt.Errorf("no track URIs provided")
	}

	profile, err := s.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user for playlist creation: %w", err)
	}

	var created SpotifyPlaylist
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      true,
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(profile.ID))
	if err := s.doRequest(ctx, token, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	addEndpoint := fmt.Sprintf("/playlists/%s/tracks", created.ID)
	addBody := map[string]any{"uris": trackURIs}
	if err := s.doRequest(ctx, token, http.MethodPost, addEndpoint, addBody, nil); err != nil {
		return nil, fmt.Errorf("playlist created but adding tracks failed: %w", err)
	}

	return &Playlist{
		ID:   created.ID,
		Name: created.Name,
		URL:  created.ExternalURLs.Spotify,
	}, nil
}

// QueueTrack adds a track URI to the user's playback queue.
// Spotify rejects this for non-Premium accounts with a 403.
func (s *SpotifyService) QueueTrack(ctx context.Context, token *oauth2.Token, trackURI string) error {
	if trackURI == "" {
		return fmt.Errorf("no track URI provided")
	}

	endpoint := "/me/player/queue?uri=" + url.QueryEscape(trackURI)
	return s.doRequest(ctx, token, http.MethodPost, endpoint, nil, nil)
}

// viewTrack maps a raw Spotify track object to the [Track] view model.
func viewTrack(st SpotifyTrack) Track {
	track := Track{
		ID:         st.ID,
		Name:       st.Name,
		AlbumName:  st.Album.Name,
		URL:        st.ExternalURLs.Spotify,
		URI:        st.URI,
		Popularity: st.Popularity,
	}

	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
		track.ArtistID = st.Artists[0].ID
	} else {
		track.Artist = "Unknown"
	}

	if len(st.Album.Images) > 0 {
		track.AlbumImage = st.Album.Images[0].URL
	}

	return track
}
