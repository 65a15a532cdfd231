// Package web implements the server-rendered web application.
//
// Each route pairs a handler with an html/template page: auth forms, the
// listener profile with its top-track tiles, the recommendation customization
// form, and a small JSON API consumed by the page script. Spotify tokens live
// in server-side session rows; the browser only carries a signed cookie with
// the session ID.
package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/customify/internal/auth"
	"github.com/desertthunder/customify/internal/recommend"
	"github.com/desertthunder/customify/internal/repositories"
	"github.com/desertthunder/customify/internal/server"
	"github.com/desertthunder/customify/internal/services"
	"github.com/desertthunder/customify/internal/shared"
)

// DefaultPlaylistName is used when a playlist request carries no name.
const DefaultPlaylistName = "Customify Recommendations"

// App wires the repositories, the Spotify client, and the recommendation
// assembler into HTTP handlers.
type App struct {
	cfg       *shared.Config
	svc       services.Service
	users     *repositories.UserRepository
	sessions  *repositories.SessionRepository
	assembler *recommend.Assembler
	cookies   *auth.CookieCodec
	states    *server.StateStore
	logger    *log.Logger
	templates *templateSet
}

// NewApp creates the application from its dependencies.
func NewApp(cfg *shared.Config, db *sql.DB, svc services.Service, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	codec, err := auth.NewCookieCodec(cfg.Session.Secret, cfg.Session.CookieName, time.Duration(cfg.Session.TTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		svc:       svc,
		users:     repositories.NewUserRepository(db),
		sessions:  repositories.NewSessionRepository(db),
		assembler: recommend.NewAssembler(svc, shared.WithLogger(logger, "component", "recommend")),
		cookies:   codec,
		states:    server.NewStateStore(10 * time.Minute),
		logger:    logger,
		templates: templates,
	}, nil
}

// Router builds the full route table with logging, recovery, and session
// middleware applied.
func (a *App) Router() *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.Recovery(a.logger), server.RequestLogger(a.logger), a.WithSession)

	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(a.handleHome))

	router.Handle(http.MethodGet, "/register", http.HandlerFunc(a.handleRegisterForm))
	router.Handle(http.MethodPost, "/register", http.HandlerFunc(a.handleRegister))
	router.Handle(http.MethodGet, "/login", http.HandlerFunc(a.handleLoginForm))
	router.Handle(http.MethodPost, "/login", http.HandlerFunc(a.handleLogin))
	router.Handle(http.MethodGet, "/logout", http.HandlerFunc(a.handleLogout))

	router.Handle(http.MethodGet, "/profile", http.HandlerFunc(a.handleProfile))

	router.Handle(http.MethodGet, "/auth/spotify", http.HandlerFunc(a.handleSpotifyLogin))
	router.Handle(http.MethodGet, "/auth/spotify/callback", http.HandlerFunc(a.handleSpotifyCallback))

	router.Handle(http.MethodGet, "/recommendations/customize", http.HandlerFunc(a.handleCustomizeForm))
	router.Handle(http.MethodPost, "/recommendations/customize", http.HandlerFunc(a.handleCustomize))

	router.Handle(http.MethodGet, "/api/recommendations", http.HandlerFunc(a.handleRecommendationsAPI))
	router.Handle(http.MethodPost, "/playlists", http.HandlerFunc(a.handleCreatePlaylist))
	router.Handle(http.MethodPost, "/queue", http.HandlerFunc(a.handleQueue))

	router.Handle(http.MethodGet, "/static/", http.FileServerFS(staticFS))

	return router
}
