package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/customify/internal/services"
	"github.com/desertthunder/customify/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	maxSeeds      = 3
	maxResults    = 10
	albumLimit    = 20
	topTrackLimit = 5

	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond

	cacheTTL         = 5 * time.Minute
	requestsPerSec   = 5.0
	defaultTimeRange = services.DefaultTimeRange
)

// Assembler builds recommendation lists on top of a [services.Service].
type Assembler struct {
	svc     services.Service
	limiter *rate.Limiter
	cache   *Cache
	logger  *log.Logger
	retries int
	backoff time.Duration
}

// NewAssembler creates an assembler backed by srv.
func NewAssembler(srv services.Service, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Assembler{
		svc:     srv,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		cache:   NewCache(cacheTTL),
		logger:  logger,
		retries: maxRetries,
		backoff: baseBackoff,
	}
}

// withRetry runs fn under the rate limiter, backing off and retrying
// when the provider answers with a 429.
func (a *Assembler) withRetry(ctx context.Context, fn func() error) error {
	backoff := a.backoff
	for attempt := 0; ; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil || !errors.Is(err, shared.ErrRateLimited) || attempt >= a.retries {
			return err
		}

		a.logger.Warn("rate limited, backing off", "attempt", attempt+1, "wait", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// Profile fetches the listener's profile, serving repeats from the cache.
func (a *Assembler) Profile(ctx context.Context, token *oauth2.Token) (*services.Profile, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}

	key := "profile:" + token.AccessToken
	if cached, ok := a.cache.Get(key); ok {
		return cached.(*services.Profile), nil
	}

	var profile *services.Profile
	err := a.withRetry(ctx, func() error {
		var callErr error
		profile, callErr = a.svc.Profile(ctx, token)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	a.cache.Set(key, profile)
	return profile, nil
}

// TopTracks fetches the listener's most played tracks, serving repeats from
// the cache. The list is bounded to the profile tile count.
func (a *Assembler) TopTracks(ctx context.Context, token *oauth2.Token) ([]services.Track, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}

	key := "top_tracks:" + token.AccessToken
	if cached, ok := a.cache.Get(key); ok {
		return cached.([]services.Track), nil
	}

	var tracks []services.Track
	err := a.withRetry(ctx, func() error {
		var callErr error
		tracks, callErr = a.svc.TopTracks(ctx, token, topTrackLimit, defaultTimeRange)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	a.cache.Set(key, tracks)
	return tracks, nil
}

// FromTopTracks assembles up to 10 recommended tracks by walking the album
// catalogs of the artists behind the listener's top tracks.
//
// Up to 3 of topTrackIDs are used as seeds; when none are given the top
// tracks are fetched first. The listener's own top tracks are excluded from
// the result. Failures skip the affected seed, and a total failure yields an
// empty list rather than an error.
func (a *Assembler) FromTopTracks(ctx context.Context, token *oauth2.Token, topTrackIDs []string) []services.Track {
	if token == nil {
		return []services.Track{}
	}

	if len(topTrackIDs) == 0 {
		tracks, err := a.TopTracks(ctx, token)
		if err != nil {
			a.logger.Error("failed to fetch top tracks for seeding", "error", err)
			return []services.Track{}
		}
		for _, track := range tracks {
			topTrackIDs = append(topTrackIDs, track.ID)
		}
	}

	seeds := topTrackIDs
	if len(seeds) > maxSeeds {
		seeds = seeds[:maxSeeds]
	}

	exclude := make(map[string]bool, len(topTrackIDs))
	for _, id := range topTrackIDs {
		exclude[id] = true
	}

	var candidates []string
	seen := make(map[string]bool)
	for _, seedID := range seeds {
		picks, err := a.walkSeedArtist(ctx, token, seedID, exclude, seen)
		if err != nil {
			a.logger.Warn("skipping seed", "seed", seedID, "error", err)
			continue
		}
		candidates = append(candidates, picks...)
	}

	if len(candidates) == 0 {
		return []services.Track{}
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	var hydrated []services.Track
	err := a.withRetry(ctx, func() error {
		var callErr error
		hydrated, callErr = a.svc.SeveralTracks(ctx, token, candidates)
		return callErr
	})
	if err != nil {
		a.logger.Error("failed to hydrate recommendations", "error", err)
		return []services.Track{}
	}

	return dedupe(hydrated, maxResults)
}

// walkSeedArtist resolves the seed track's lead artist and picks one random
// unheard track from each of the artist's albums.
func (a *Assembler) walkSeedArtist(ctx context.Context, token *oauth2.Token, seedID string, exclude, seen map[string]bool) ([]string, error) {
	var seed *services.Track
	err := a.withRetry(ctx, func() error {
		var callErr error
		seed, callErr = a.svc.Track(ctx, token, seedID)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve seed track: %w", err)
	}
	if seed.ArtistID == "" {
		return nil, fmt.Errorf("seed track %s has no artist", seedID)
	}

	var albums []services.AlbumRef
	err = a.withRetry(ctx, func() error {
		var callErr error
		albums, callErr = a.svc.ArtistAlbums(ctx, token, seed.ArtistID, albumLimit)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artist albums: %w", err)
	}

	var picks []string
	for _, album := range albums {
		var tracks []services.TrackRef
		err := a.withRetry(ctx, func() error {
			var callErr error
			tracks, callErr = a.svc.AlbumTracks(ctx, token, album.ID)
			return callErr
		})
		if err != nil {
			a.logger.Warn("skipping album", "album", album.ID, "error", err)
			continue
		}

		eligible := make([]string, 0, len(tracks))
		for _, track := range tracks {
			if track.ID == "" || exclude[track.ID] || seen[track.ID] {
				continue
			}
			eligible = append(eligible, track.ID)
		}
		if len(eligible) == 0 {
			continue
		}

		pick := eligible[rand.IntN(len(eligible))]
		seen[pick] = true
		picks = append(picks, pick)
	}

	return picks, nil
}

// Customized runs a seeded recommendation query constrained by the tuned
// audio-feature parameters. The seed track is a pasted open.spotify.com
// link; the artist link is optional and defaults to the track's lead artist.
func (a *Assembler) Customized(ctx context.Context, token *oauth2.Token, trackLink, artistLink string, params TunableParams) ([]services.Track, error) {
	trackID, err := shared.ExtractSpotifyID(trackLink, "track")
	if err != nil {
		return nil, err
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var artistID string
	if artistLink != "" {
		artistID, err = shared.ExtractSpotifyID(artistLink, "artist")
		if err != nil {
			return nil, err
		}
	} else {
		var seed *services.Track
		err := a.withRetry(ctx, func() error {
			var callErr error
			seed, callErr = a.svc.Track(ctx, token, trackID)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve seed artist: %w", err)
		}
		artistID = seed.ArtistID
	}

	query := services.RecommendationQuery{
		SeedTracks: []string{trackID},
		Limit:      maxResults,
		Tunables:   params.Encode(),
	}
	if artistID != "" {
		query.SeedArtists = []string{artistID}
	}

	var tracks []services.Track
	err = a.withRetry(ctx, func() error {
		var callErr error
		tracks, callErr = a.svc.Recommendations(ctx, token, query)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return dedupe(tracks, maxResults), nil
}

// dedupe removes duplicate track IDs and bounds the list.
func dedupe(tracks []services.Track, limit int) []services.Track {
	seen := make(map[string]bool, len(tracks))
	out := make([]services.Track, 0, len(tracks))
	for _, track := range tracks {
		if seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		out = append(out, track)
		if len(out) == limit {
			break
		}
	}
	return out
}
