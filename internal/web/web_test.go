package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/customify/internal/auth"
	"github.com/desertthunder/customify/internal/models"
	"github.com/desertthunder/customify/internal/services"
	"github.com/desertthunder/customify/internal/shared"
	tu "github.com/desertthunder/customify/internal/testing"
	"golang.org/x/oauth2"
)

func testConfig() *shared.Config {
	cfg := &shared.Config{}
	cfg.Credentials.Spotify.ClientID = "test_client_id"
	cfg.Credentials.Spotify.ClientSecret = "test_client_secret"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 3000
	cfg.Session.CookieName = "customify_session"
	cfg.Session.TTLHours = 72
	cfg.Session.Secret = "test-session-secret"
	return cfg
}

func newTestApp(t *testing.T, svc services.Service) (*App, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if svc == nil {
		svc = &tu.MockService{}
	}

	app, err := NewApp(testConfig(), db, svc, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	return app, db
}

// registerUser creates an account directly against the repository.
func registerUser(t *testing.T, app *App) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("Sup3r$ecret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.NewUser(0, "listener", "listener@example.com", hash)
	if err := app.users.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// startSession creates a session row and its signed cookie.
func startSession(t *testing.T, app *App, user *models.User, token *oauth2.Token) (*models.Session, *http.Cookie) {
	t.Helper()

	session := models.NewSession(0, user.ID(), 72*time.Hour)
	if token != nil {
		session.SetToken(token)
	}
	if err := app.sessions.Create(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	value, err := app.cookies.Issue(session.ID())
	if err != nil {
		t.Fatalf("failed to issue cookie: %v", err)
	}

	return session, &http.Cookie{Name: app.cookies.Name(), Value: value}
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "test_access",
		RefreshToken: "test_refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func expiredToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "stale_access",
		RefreshToken: "stale_refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
}

func TestProfile(t *testing.T) {
	t.Run("Logged Out Redirects To Login", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}
	})

	t.Run("Without Spotify Token Shows Connect Prompt", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Log in with Spotify") {
			t.Error("expected the connect prompt")
		}
		if strings.Contains(rec.Body.String(), "Your top tracks") {
			t.Error("track data should not render without a token")
		}
	})

	t.Run("Renders Top Tracks And Premium Badge", func(t *testing.T) {
		svc := &tu.MockService{
			ProfileFunc: func(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
				return &services.Profile{ID: "listener", DisplayName: "Listener", Product: "premium"}, nil
			},
			TopTracksFunc: func(ctx context.Context, token *oauth2.Token, limit int, timeRange string) ([]services.Track, error) {
				return []services.Track{
					{ID: "t1", Name: "First Song", Artist: "Band"},
					{ID: "t2", Name: "Second Song", Artist: "Band"},
				}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, validToken())

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		body := rec.Body.String()
		if !strings.Contains(body, "First Song") {
			t.Error("expected top track tiles")
		}
		if !strings.Contains(body, "Premium") {
			t.Error("expected the premium badge")
		}

		// Top track IDs are recorded for recommendation seeding.
		stored, err := app.sessions.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if len(stored.TopTrackIDs()) != 2 {
			t.Errorf("expected 2 stored track IDs, got %v", stored.TopTrackIDs())
		}
	})

	t.Run("Failed Refresh Falls Back To Connect Prompt", func(t *testing.T) {
		svc := &tu.MockService{
			RefreshFunc: func(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
				return nil, fmt.Errorf("%w: refresh rejected", shared.ErrRefreshFailed)
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, expiredToken())

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Log in with Spotify") {
			t.Error("expected re-authentication prompt after failed refresh")
		}

		stored, err := app.sessions.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if stored.HasToken() {
			t.Error("token pair should be cleared after failed refresh")
		}
	})

	t.Run("Expired Token Refreshes Transparently", func(t *testing.T) {
		refreshed := false
		svc := &tu.MockService{
			RefreshFunc: func(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
				refreshed = true
				return validToken(), nil
			},
			ProfileFunc: func(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
				if token.AccessToken != "test_access" {
					t.Errorf("expected refreshed token, got %s", token.AccessToken)
				}
				return &services.Profile{ID: "listener", DisplayName: "Listener", Product: "free"}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, expiredToken())

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if !refreshed {
			t.Error("expected a transparent token refresh")
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRegisterAndLogin(t *testing.T) {
	postForm := func(app *App, path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)
		return rec
	}

	t.Run("Register Success", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := postForm(app, "/register", url.Values{
			"username":         {"listener"},
			"email":            {"listener@example.com"},
			"password":         {"Sup3r$ecret"},
			"confirm_password": {"Sup3r$ecret"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}

		if _, err := app.users.GetByEmail("listener@example.com"); err != nil {
			t.Errorf("expected user to be created: %v", err)
		}
	})

	t.Run("Register Rejects Weak Password", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := postForm(app, "/register", url.Values{
			"username":         {"listener"},
			"email":            {"listener@example.com"},
			"password":         {"weak"},
			"confirm_password": {"weak"},
		})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("Register Rejects Mismatched Passwords", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := postForm(app, "/register", url.Values{
			"username":         {"listener"},
			"email":            {"listener@example.com"},
			"password":         {"Sup3r$ecret"},
			"confirm_password": {"Different$1"},
		})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Passwords do not match") {
			t.Error("expected mismatch message")
		}
	})

	t.Run("Register Rejects Duplicate Email", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		registerUser(t, app)

		rec := postForm(app, "/register", url.Values{
			"username":         {"other"},
			"email":            {"listener@example.com"},
			"password":         {"Sup3r$ecret"},
			"confirm_password": {"Sup3r$ecret"},
		})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already registered") {
			t.Error("expected duplicate account message")
		}
	})

	t.Run("Login Success Sets Session Cookie", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		registerUser(t, app)

		rec := postForm(app, "/login", url.Values{
			"email":    {"listener@example.com"},
			"password": {"Sup3r$ecret"},
		})

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/profile" {
			t.Errorf("expected redirect to /profile, got %s", loc)
		}

		var sessionCookie *http.Cookie
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == app.cookies.Name() {
				sessionCookie = cookie
			}
		}
		if sessionCookie == nil {
			t.Fatal("expected a session cookie")
		}

		sessionID, err := app.cookies.Verify(sessionCookie.Value)
		if err != nil {
			t.Fatalf("cookie failed verification: %v", err)
		}
		if _, err := app.sessions.Get(sessionID); err != nil {
			t.Errorf("expected a persisted session: %v", err)
		}
	})

	t.Run("Login Failure Is Generic", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		registerUser(t, app)

		for name, form := range map[string]url.Values{
			"Wrong Password": {"email": {"listener@example.com"}, "password": {"Wrong$ecret1"}},
			"Unknown Email":  {"email": {"nobody@example.com"}, "password": {"Sup3r$ecret"}},
		} {
			t.Run(name, func(t *testing.T) {
				rec := postForm(app, "/login", form)

				if rec.Code != http.StatusUnauthorized {
					t.Errorf("expected 401, got %d", rec.Code)
				}
				if !strings.Contains(rec.Body.String(), "Invalid email or password") {
					t.Error("expected the generic credential message")
				}
			})
		}
	})

	t.Run("Logout Deletes Session", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if _, err := app.sessions.Get(session.ID()); err == nil {
			t.Error("expected session row to be deleted")
		}
	})
}

func TestSpotifyOAuth(t *testing.T) {
	t.Run("Login Redirects To Provider", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/spotify", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		loc := rec.Header().Get("Location")
		if !strings.Contains(loc, "state=") {
			t.Errorf("expected a state parameter in %s", loc)
		}
	})

	t.Run("Callback Stores Token", func(t *testing.T) {
		svc := &tu.MockService{
			ExchangeFunc: func(ctx context.Context, code string) (*oauth2.Token, error) {
				if code != "auth-code" {
					t.Errorf("unexpected code %s", code)
				}
				return validToken(), nil
			},
			ProfileFunc: func(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
				return &services.Profile{ID: "listener", DisplayName: "Listener"}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, nil)

		state := app.states.Issue()
		req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?code=auth-code&state="+state, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		stored, err := app.sessions.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if !stored.HasToken() {
			t.Error("expected token to be persisted")
		}
		if stored.SpotifyUserID() != "listener" {
			t.Errorf("expected spotify profile on session, got %q", stored.SpotifyUserID())
		}
	})

	t.Run("Callback Rejects Forged State", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?code=auth-code&state=forged", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		stored, err := app.sessions.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if stored.HasToken() {
			t.Error("forged state must not store a token")
		}
	})

	t.Run("Callback Surfaces Provider Error", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?error=access_denied", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		stored, _ := app.sessions.Get(session.ID())
		if stored.HasToken() {
			t.Error("denied authorization must not store a token")
		}
	})
}

func TestRecommendationsAPI(t *testing.T) {
	t.Run("Unauthenticated Returns 401 JSON", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected JSON error body: %v", err)
		}
		if body["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("Provider Failure Returns Empty List", func(t *testing.T) {
		svc := &tu.MockService{
			TrackFunc: func(ctx context.Context, token *oauth2.Token, trackID string) (*services.Track, error) {
				return nil, fmt.Errorf("%w: provider down", shared.ErrAPIRequest)
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, validToken())
		session.SetTopTrackIDs([]string{"top-1"})
		if err := app.sessions.Update(session); err != nil {
			t.Fatalf("failed to store top tracks: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var tracks []services.Track
		if err := json.Unmarshal(rec.Body.Bytes(), &tracks); err != nil {
			t.Fatalf("expected a JSON array: %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected an empty list, got %d tracks", len(tracks))
		}
	})

	t.Run("Returns Assembled Tracks", func(t *testing.T) {
		svc := &tu.MockService{
			TrackFunc: func(ctx context.Context, token *oauth2.Token, trackID string) (*services.Track, error) {
				return &services.Track{ID: trackID, ArtistID: "a1"}, nil
			},
			ArtistAlbumsFunc: func(ctx context.Context, token *oauth2.Token, artistID string, limit int) ([]services.AlbumRef, error) {
				return []services.AlbumRef{{ID: "album-1"}}, nil
			},
			AlbumTracksFunc: func(ctx context.Context, token *oauth2.Token, albumID string) ([]services.TrackRef, error) {
				return []services.TrackRef{{ID: "fresh-1"}}, nil
			},
			SeveralTracksFunc: func(ctx context.Context, token *oauth2.Token, trackIDs []string) ([]services.Track, error) {
				return []services.Track{{ID: "fresh-1", Name: "Fresh Track", Artist: "Band", URI: "spotify:track:fresh-1"}}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		session, cookie := startSession(t, app, user, validToken())
		session.SetTopTrackIDs([]string{"top-1"})
		if err := app.sessions.Update(session); err != nil {
			t.Fatalf("failed to store top tracks: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		var tracks []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &tracks); err != nil {
			t.Fatalf("expected a JSON array: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0]["id"] != "fresh-1" || tracks[0]["artist"] != "Band" {
			t.Errorf("unexpected payload: %v", tracks[0])
		}
	})
}

func TestPlaylistAndQueue(t *testing.T) {
	postJSON := func(app *App, cookie *http.Cookie, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)
		return rec
	}

	t.Run("Playlist Uses Default Name", func(t *testing.T) {
		var gotName string
		svc := &tu.MockService{
			CreatePlaylistFunc: func(ctx context.Context, token *oauth2.Token, name, description string, trackURIs []string) (*services.Playlist, error) {
				gotName = name
				return &services.Playlist{ID: "p1", Name: name, URL: "https://open.spotify.com/playlist/p1"}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postJSON(app, cookie, "/playlists", `{"uris": ["spotify:track:t1"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != DefaultPlaylistName {
			t.Errorf("expected default playlist name, got %q", gotName)
		}
	})

	t.Run("Playlist Requires URIs", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postJSON(app, cookie, "/playlists", `{"uris": []}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Queue Rejects Free Accounts", func(t *testing.T) {
		queued := false
		svc := &tu.MockService{
			ProfileFunc: func(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
				return &services.Profile{ID: "listener", Product: "free"}, nil
			},
			QueueTrackFunc: func(ctx context.Context, token *oauth2.Token, trackURI string) error {
				queued = true
				return nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postJSON(app, cookie, "/queue", `{"uris": ["spotify:track:t1"]}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if queued {
			t.Error("queue call must not reach the provider for free accounts")
		}
	})

	t.Run("Queue Adds Tracks For Premium", func(t *testing.T) {
		var uris []string
		svc := &tu.MockService{
			ProfileFunc: func(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
				return &services.Profile{ID: "listener", Product: "premium"}, nil
			},
			QueueTrackFunc: func(ctx context.Context, token *oauth2.Token, trackURI string) error {
				uris = append(uris, trackURI)
				return nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postJSON(app, cookie, "/queue", `{"uris": ["spotify:track:t1", "spotify:track:t2"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(uris) != 2 {
			t.Errorf("expected 2 queued tracks, got %v", uris)
		}
	})

	t.Run("Queue Requires Authentication", func(t *testing.T) {
		app, _ := newTestApp(t, nil)

		rec := postJSON(app, nil, "/queue", `{"uris": ["spotify:track:t1"]}`)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestCustomize(t *testing.T) {
	trackLink := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"

	postForm := func(app *App, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/recommendations/customize", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)
		return rec
	}

	t.Run("Runs Tuned Query", func(t *testing.T) {
		var got services.RecommendationQuery
		svc := &tu.MockService{
			TrackFunc: func(ctx context.Context, token *oauth2.Token, trackID string) (*services.Track, error) {
				return &services.Track{ID: trackID, ArtistID: "resolved-artist"}, nil
			},
			RecommendationsFunc: func(ctx context.Context, token *oauth2.Token, query services.RecommendationQuery) ([]services.Track, error) {
				got = query
				return []services.Track{{ID: "r1", Name: "Tuned Track", Artist: "Band"}}, nil
			},
		}

		app, _ := newTestApp(t, svc)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postForm(app, cookie, url.Values{
			"track_link": {trackLink},
			"use_energy": {"on"},
			"energy":     {"0.8"},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Tuned Track") {
			t.Error("expected the result page to list the track")
		}
		if got.Tunables["min_energy"] != "0.8" {
			t.Errorf("unexpected tunables %v", got.Tunables)
		}
		if len(got.SeedArtists) != 1 || got.SeedArtists[0] != "resolved-artist" {
			t.Errorf("expected artist resolved from track, got %v", got.SeedArtists)
		}
	})

	t.Run("Rejects Invalid Link", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, validToken())

		rec := postForm(app, cookie, url.Values{"track_link": {"https://example.com/nope"}})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "open.spotify.com") {
			t.Error("expected link guidance in the error")
		}
	})

	t.Run("Redirects Without Spotify Token", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		user := registerUser(t, app)
		_, cookie := startSession(t, app, user, nil)

		req := httptest.NewRequest(http.MethodGet, "/recommendations/customize", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/profile" {
			t.Errorf("expected redirect to /profile, got %s", loc)
		}
	})
}
