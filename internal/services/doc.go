// Package services defines the [Service] interface for the music provider and implements it for Spotify.
//
// # Service Interface
//
// The web handlers and the recommendation assembler talk to the provider only
// through [Service], so tests can substitute a double without network access.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 (authorization code flow) for authentication.
// Tokens are passed per call rather than held on the client: each browser
// session owns its own token pair, stored server-side, and the shared client
// carries no per-user state.
//
// Refresh goes through [oauth2.Config.TokenSource]; the caller persists the
// replacement pair.
//
// # Error Handling
//
// Non-2xx responses become a [StatusError] which unwraps to typed errors from
// the shared package:
//   - [shared.ErrRateLimited] : 429, retried with backoff by the recommend package
//   - [shared.ErrTokenExpired] : 401, triggers a transparent refresh attempt
//   - [shared.ErrAPIRequest] : anything else
//
// # API Mappings
//
// Raw response types (SpotifyTrack, SpotifyUser, ...) mirror the Web API
// JSON; view models ([Track], [Profile], [Playlist]) carry only what the
// templates and the async recommendations payload need.
package services
