package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Session is a server-side session owning at most one Spotify OAuth token pair.
//
// The browser references a session only by its ID (carried in a signed cookie);
// tokens never leave the server. The token pair is replaced wholesale on
// refresh and destroyed with the session on logout.
type Session struct {
	id            string
	sequence      int
	userID        string
	accessToken   string
	refreshToken  string
	tokenExpiry   time.Time
	spotifyUserID string
	displayName   string
	topTrackIDs   []string
	expiresAt     time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSession creates a session for the given user that expires after ttl.
// The ID is assigned by the repository on Create.
func NewSession(sequence int, userID string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		sequence:  sequence,
		userID:    userID,
		expiresAt: now.Add(ttl),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Sequence() int         { return s.sequence }
func (s *Session) UserID() string        { return s.userID }
func (s *Session) SpotifyUserID() string { return s.spotifyUserID }
func (s *Session) DisplayName() string   { return s.displayName }
func (s *Session) TopTrackIDs() []string { return s.topTrackIDs }
func (s *Session) ExpiresAt() time.Time  { return s.expiresAt }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) UpdatedAt() time.Time  { return s.updatedAt }

func (s *Session) SetID(id string)              { s.id = id }
func (s *Session) SetCreatedAt(t time.Time)     { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)     { s.updatedAt = t }
func (s *Session) SetExpiresAt(t time.Time)     { s.expiresAt = t }
func (s *Session) SetTopTrackIDs(ids []string)  { s.topTrackIDs = ids }

// SetSpotifyProfile records the Spotify identity fetched after the OAuth exchange.
func (s *Session) SetSpotifyProfile(spotifyUserID, displayName string) {
	s.spotifyUserID = spotifyUserID
	s.displayName = displayName
}

// Token returns the stored OAuth token pair, or nil when the session holds none.
func (s *Session) Token() *oauth2.Token {
	if s.accessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		Expiry:       s.tokenExpiry,
	}
}

// SetToken replaces the stored token pair wholesale.
//
// A refresh response without a new refresh token keeps the previous one,
// matching Spotify's token endpoint behavior.
func (s *Session) SetToken(token *oauth2.Token) {
	if token == nil {
		s.ClearToken()
		return
	}
	s.accessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.refreshToken = token.RefreshToken
	}
	s.tokenExpiry = token.Expiry
}

// ClearToken removes the stored token pair.
func (s *Session) ClearToken() {
	s.accessToken = ""
	s.refreshToken = ""
	s.tokenExpiry = time.Time{}
}

// HasToken reports whether the session holds an access token.
func (s *Session) HasToken() bool {
	return s.accessToken != ""
}

// TokenExpired reports whether the stored access token is past its expiry.
// A token with no recorded expiry is treated as valid.
func (s *Session) TokenExpired() bool {
	if !s.HasToken() || s.tokenExpiry.IsZero() {
		return false
	}
	return time.Now().After(s.tokenExpiry)
}

// RefreshToken returns the stored refresh token, if any.
func (s *Session) RefreshToken() string {
	return s.refreshToken
}

// Expired reports whether the session itself is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.expiresAt)
}

// Validate checks the session references a user and carries an expiry.
func (s *Session) Validate() error {
	if s.userID == "" {
		return fmt.Errorf("session user id is required")
	}
	if s.expiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}
	return nil
}
