// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"

	"github.com/desertthunder/customify/internal/services"
	"golang.org/x/oauth2"
)

// MockService is a configurable test double for [services.Service].
//
// Each field, when set, overrides the corresponding method; unset methods
// return zero values.
type MockService struct {
	AuthURLFunc         func(state string) string
	ExchangeFunc        func(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshFunc         func(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
	ProfileFunc         func(ctx context.Context, token *oauth2.Token) (*services.Profile, error)
	TopTracksFunc       func(ctx context.Context, token *oauth2.Token, limit int, timeRange string) ([]services.Track, error)
	TrackFunc           func(ctx context.Context, token *oauth2.Token, trackID string) (*services.Track, error)
	SeveralTracksFunc   func(ctx context.Context, token *oauth2.Token, trackIDs []string) ([]services.Track, error)
	ArtistAlbumsFunc    func(ctx context.Context, token *oauth2.Token, artistID string, limit int) ([]services.AlbumRef, error)
	AlbumTracksFunc     func(ctx context.Context, token *oauth2.Token, albumID string) ([]services.TrackRef, error)
	RecommendationsFunc func(ctx context.Context, token *oauth2.Token, query services.RecommendationQuery) ([]services.Track, error)
	CreatePlaylistFunc  func(ctx context.Context, token *oauth2.Token, name, description string, trackURIs []string) (*services.Playlist, error)
	QueueTrackFunc      func(ctx context.Context, token *oauth2.Token, trackURI string) error
}

func (m *MockService) AuthURL(state string) string {
	if m.AuthURLFunc != nil {
		return m.AuthURLFunc(state)
	}
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return &oauth2.Token{AccessToken: "mock_access"}, nil
}

func (m *MockService) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, token)
	}
	return token, nil
}

func (m *MockService) Profile(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, token)
	}
	return &services.Profile{}, nil
}

func (m *MockService) TopTracks(ctx context.Context, token *oauth2.Token, limit int, timeRange string) ([]services.Track, error) {
	if m.TopTracksFunc != nil {
		return m.TopTracksFunc(ctx, token, limit, timeRange)
	}
	return []services.Track{}, nil
}

func (m *MockService) Track(ctx context.Context, token *oauth2.Token, trackID string) (*services.Track, error) {
	if m.TrackFunc != nil {
		return m.TrackFunc(ctx, token, trackID)
	}
	return nil, errors.New("track not found")
}

func (m *MockService) SeveralTracks(ctx context.Context, token *oauth2.Token, trackIDs []string) ([]services.Track, error) {
	if m.SeveralTracksFunc != nil {
		return m.SeveralTracksFunc(ctx, token, trackIDs)
	}
	return []services.Track{}, nil
}

func (m *MockService) ArtistAlbums(ctx context.Context, token *oauth2.Token, artistID string, limit int) ([]services.AlbumRef, error) {
	if m.ArtistAlbumsFunc != nil {
		return m.ArtistAlbumsFunc(ctx, token, artistID, limit)
	}
	return []services.AlbumRef{}, nil
}

func (m *MockService) AlbumTracks(ctx context.Context, token *oauth2.Token, albumID string) ([]services.TrackRef, error) {
	if m.AlbumTracksFunc != nil {
		return m.AlbumTracksFunc(ctx, token, albumID)
	}
	return []services.TrackRef{}, nil
}

func (m *MockService) Recommendations(ctx context.Context, token *oauth2.Token, query services.RecommendationQuery) ([]services.Track, error) {
	if m.RecommendationsFunc != nil {
		return m.RecommendationsFunc(ctx, token, query)
	}
	return []services.Track{}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, token *oauth2.Token, name, description string, trackURIs []string) (*services.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, token, name, description, trackURIs)
	}
	return &services.Playlist{ID: "mock_playlist", Name: name}, nil
}

func (m *MockService) QueueTrack(ctx context.Context, token *oauth2.Token, trackURI string) error {
	if m.QueueTrackFunc != nil {
		return m.QueueTrackFunc(ctx, token, trackURI)
	}
	return nil
}

func (m *MockService) Name() string { return "mock" }
