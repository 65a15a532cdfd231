package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/customify/internal/shared"
	"golang.org/x/oauth2"
)

// roundTripFunc adapts a function to http.RoundTripper.
// Defined locally because internal/testing imports this package.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testService(t *testing.T, rt http.RoundTripper) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if rt != nil {
		srv.httpClient = &http.Client{Transport: rt}
	}
	return srv
}

func testToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "test_access_token"}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv := testService(t, nil)

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_secret": "test_client_secret",
			})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_id": "test_client_id",
			})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv := testService(t, nil)

		authURL := srv.AuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "show_dialog=true") {
			t.Error("auth URL should request the consent dialog")
		}
	})

	t.Run("Refresh Without Refresh Token", func(t *testing.T) {
		srv := testService(t, nil)

		_, err := srv.Refresh(context.Background(), &oauth2.Token{AccessToken: "only_access"})
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}

		_, err = srv.Refresh(context.Background(), nil)
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken for nil token, got %v", err)
		}
	})

	t.Run("Profile", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if r.URL.Path != "/v1/me" {
					t.Errorf("expected path /v1/me, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test_access_token" {
					t.Errorf("unexpected authorization header %q", got)
				}
				return jsonResponse(200, `{
					"id": "listener",
					"display_name": "Listener",
					"email": "listener@example.com",
					"product": "premium",
					"followers": {"total": 7},
					"images": [{"url": "https://i.scdn.co/image/avatar"}]
				}`), nil
			}))

			profile, err := srv.Profile(context.Background(), testToken())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if profile.ID != "listener" || profile.DisplayName != "Listener" {
				t.Errorf("unexpected profile: %+v", profile)
			}
			if !profile.IsPremium() {
				t.Error("expected premium profile")
			}
			if profile.ImageURL != "https://i.scdn.co/image/avatar" {
				t.Errorf("unexpected image URL %q", profile.ImageURL)
			}
		})

		t.Run("Display Name Falls Back To ID", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(200, `{"id": "listener", "product": "free"}`), nil
			}))

			profile, err := srv.Profile(context.Background(), testToken())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if profile.DisplayName != "listener" {
				t.Errorf("expected fallback display name, got %q", profile.DisplayName)
			}
			if profile.IsPremium() {
				t.Error("free profile should not be premium")
			}
		})

		t.Run("Missing Token", func(t *testing.T) {
			srv := testService(t, nil)

			_, err := srv.Profile(context.Background(), nil)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("TopTracks", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if r.URL.Path != "/v1/me/top/tracks" {
					t.Errorf("expected top tracks path, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("time_range"); got != "short_term" {
					t.Errorf("expected short_term fallback, got %q", got)
				}
				return jsonResponse(200, `{"items": [
					{"id": "t1", "name": "First", "uri": "spotify:track:t1",
					 "artists": [{"id": "a1", "name": "Artist"}],
					 "album": {"name": "Album", "images": [{"url": "https://i.scdn.co/image/cover"}]},
					 "external_urls": {"spotify": "https://open.spotify.com/track/t1"}}
				]}`), nil
			}))

			tracks, err := srv.TopTracks(context.Background(), testToken(), 10, "not_a_range")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(tracks))
			}

			track := tracks[0]
			if track.ID != "t1" || track.Artist != "Artist" || track.ArtistID != "a1" {
				t.Errorf("unexpected track mapping: %+v", track)
			}
			if track.AlbumImage != "https://i.scdn.co/image/cover" {
				t.Errorf("unexpected album image %q", track.AlbumImage)
			}
			if track.URL != "https://open.spotify.com/track/t1" {
				t.Errorf("unexpected external URL %q", track.URL)
			}
		})

		t.Run("Rate Limited", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(429, `{"error": {"status": 429, "message": "rate limited"}}`), nil
			}))

			_, err := srv.TopTracks(context.Background(), testToken(), 10, "short_term")
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(401, `{"error": {"status": 401, "message": "token expired"}}`), nil
			}))

			_, err := srv.TopTracks(context.Background(), testToken(), 10, "short_term")
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})
	})

	t.Run("SeveralTracks", func(t *testing.T) {
		t.Run("Too Many IDs", func(t *testing.T) {
			srv := testService(t, nil)

			ids := make([]string, 51)
			for i := range ids {
				ids[i] = "id"
			}

			if _, err := srv.SeveralTracks(context.Background(), testToken(), ids); err == nil {
				t.Error("expected error for more than 50 IDs")
			}
		})

		t.Run("No IDs", func(t *testing.T) {
			srv := testService(t, nil)

			if _, err := srv.SeveralTracks(context.Background(), testToken(), nil); err == nil {
				t.Error("expected error for empty ID list")
			}
		})
	})

	t.Run("Recommendations", func(t *testing.T) {
		t.Run("Requires Seeds", func(t *testing.T) {
			srv := testService(t, nil)

			_, err := srv.Recommendations(context.Background(), testToken(), RecommendationQuery{})
			if err == nil {
				t.Error("expected error for query without seeds")
			}
		})

		t.Run("Encodes Seeds And Tunables", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				q := r.URL.Query()
				if q.Get("seed_tracks") != "t1,t2" {
					t.Errorf("unexpected seed_tracks %q", q.Get("seed_tracks"))
				}
				if q.Get("seed_artists") != "a1" {
					t.Errorf("unexpected seed_artists %q", q.Get("seed_artists"))
				}
				if q.Get("min_energy") != "0.8" {
					t.Errorf("unexpected min_energy %q", q.Get("min_energy"))
				}
				if q.Get("limit") != "10" {
					t.Errorf("unexpected limit %q", q.Get("limit"))
				}
				return jsonResponse(200, `{"tracks": [{"id": "r1", "name": "Rec", "artists": [{"name": "A"}], "album": {}}]}`), nil
			}))

			tracks, err := srv.Recommendations(context.Background(), testToken(), RecommendationQuery{
				SeedTracks:  []string{"t1", "t2"},
				SeedArtists: []string{"a1"},
				Tunables:    map[string]string{"min_energy": "0.8"},
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 || tracks[0].ID != "r1" {
				t.Errorf("unexpected tracks: %+v", tracks)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			var paths []string
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				paths = append(paths, r.URL.Path)
				switch len(paths) {
				case 1: // profile lookup
					return jsonResponse(200, `{"id": "listener"}`), nil
				case 2: // create playlist
					return jsonResponse(201, `{"id": "p1", "name": "Customify Recommendations", "external_urls": {"spotify": "https://open.spotify.com/playlist/p1"}}`), nil
				default: // add tracks
					return jsonResponse(201, `{"snapshot_id": "snap"}`), nil
				}
			}))

			playlist, err := srv.CreatePlaylist(context.Background(), testToken(), "Customify Recommendations", "desc", []string{"spotify:track:t1"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if playlist.ID != "p1" {
				t.Errorf("unexpected playlist: %+v", playlist)
			}
			if len(paths) != 3 {
				t.Fatalf("expected 3 API calls, got %d", len(paths))
			}
			if paths[1] != "/v1/users/listener/playlists" {
				t.Errorf("unexpected create path %s", paths[1])
			}
			if paths[2] != "/v1/playlists/p1/tracks" {
				t.Errorf("unexpected add-tracks path %s", paths[2])
			}
		})

		t.Run("No URIs", func(t *testing.T) {
			srv := testService(t, nil)

			if _, err := srv.CreatePlaylist(context.Background(), testToken(), "name", "desc", nil); err == nil {
				t.Error("expected error for empty URI list")
			}
		})
	})

	t.Run("QueueTrack", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/me/player/queue" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("uri"); got != "spotify:track:t1" {
					t.Errorf("unexpected uri %q", got)
				}
				return jsonResponse(204, ``), nil
			}))

			if err := srv.QueueTrack(context.Background(), testToken(), "spotify:track:t1"); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("Forbidden For Free Accounts", func(t *testing.T) {
			srv := testService(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(403, `{"error": {"status": 403, "message": "Player command failed: Premium required"}}`), nil
			}))

			err := srv.QueueTrack(context.Background(), testToken(), "spotify:track:t1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}

			var serr *StatusError
			if !errors.As(err, &serr) || serr.StatusCode != 403 {
				t.Errorf("expected StatusError with 403, got %v", err)
			}
		})
	})
}
