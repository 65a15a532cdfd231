// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the interface for the music provider backing the web application.
//
// Tokens are passed per call: every browser session owns its own token pair,
// so the client itself stays stateless and shareable across requests.
type Service interface {
	// AuthURL returns the provider authorization URL for the given CSRF state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token pair.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a fresh token pair using the refresh token carried by token.
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)

	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)

	// TopTracks retrieves the user's most played tracks for a time range.
	TopTracks(ctx context.Context, token *oauth2.Token, limit int, timeRange string) ([]Track, error)

	// Track retrieves a single track by ID.
	Track(ctx context.Context, token *oauth2.Token, trackID string) (*Track, error)

	// SeveralTracks retrieves multiple tracks by their IDs (up to 50).
	SeveralTracks(ctx context.Context, token *oauth2.Token, trackIDs []string) ([]Track, error)

	// ArtistAlbums retrieves an artist's albums.
	ArtistAlbums(ctx context.Context, token *oauth2.Token, artistID string, limit int) ([]AlbumRef, error)

	// AlbumTracks retrieves the simplified track listing of an album.
	AlbumTracks(ctx context.Context, token *oauth2.Token, albumID string) ([]TrackRef, error)

	// Recommendations retrieves seeded recommendations, optionally filtered by tunable audio features.
	Recommendations(ctx context.Context, token *oauth2.Token, query RecommendationQuery) ([]Track, error)

	// CreatePlaylist creates a playlist for the user and fills it with the given track URIs.
	CreatePlaylist(ctx context.Context, token *oauth2.Token, name, description string, trackURIs []string) (*Playlist, error)

	// QueueTrack adds a track URI to the user's playback queue. Premium only.
	QueueTrack(ctx context.Context, token *oauth2.Token, trackURI string) error

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// Profile is the view model for the authenticated user's provider profile.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	Country     string
	Product     string
	ImageURL    string
	Followers   int
}

// IsPremium reports whether the profile's subscription tier allows playback mutation.
func (p *Profile) IsPremium() bool {
	return p.Product == "premium"
}

// Track is the view model for a track tile and the async recommendations payload.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	ArtistID   string `json:"-"`
	AlbumName  string `json:"-"`
	AlbumImage string `json:"album_image"`
	URL        string `json:"url"`
	URI        string `json:"uri"`
	Popularity int    `json:"-"`
}

// AlbumRef is a simplified album reference used when walking an artist's catalog.
type AlbumRef struct {
	ID   string
	Name string
}

// TrackRef is a simplified track reference from an album listing.
type TrackRef struct {
	ID   string
	Name string
	URI  string
}

// Playlist is the view model for a created playlist.
type Playlist struct {
	ID   string
	Name string
	URL  string
}

// RecommendationQuery describes a request to the provider's recommendation endpoint.
//
// Tunables maps raw parameter names (min_energy, target_popularity, ...) to
// their string values; the recommend package builds it from validated form input.
type RecommendationQuery struct {
	SeedTracks  []string
	SeedArtists []string
	Limit       int
	Tunables    map[string]string
}
