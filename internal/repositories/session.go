package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/customify/internal/models"
	"github.com/desertthunder/customify/internal/shared"
	"golang.org/x/oauth2"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// Sessions are hard-deleted; destroying the row destroys the token pair it owns.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	session.SetID(id)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	topTracks, err := marshalTopTracks(session.TopTrackIDs())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (
			id, sequence, user_id, access_token, refresh_token, token_expires_at,
			spotify_user_id, display_name, top_track_ids, expires_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	token := session.Token()
	var accessToken, refreshToken any
	var tokenExpiry any
	if token != nil {
		accessToken = token.AccessToken
		refreshToken = session.RefreshToken()
		tokenExpiry = token.Expiry
	}

	_, err = r.db.Exec(query,
		id, sequence, session.UserID(),
		accessToken, refreshToken, tokenExpiry,
		nullable(session.SpotifyUserID()), nullable(session.DisplayName()), topTracks,
		session.ExpiresAt(), session.CreatedAt(), session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID.
// Expired sessions are returned; the caller decides whether to destroy them.
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, sequence, user_id, access_token, refresh_token, token_expires_at,
		       spotify_user_id, display_name, top_track_ids, expires_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	var (
		sessionID     string
		sequence      int
		userID        string
		accessToken   sql.NullString
		refreshToken  sql.NullString
		tokenExpiry   sql.NullTime
		spotifyUserID sql.NullString
		displayName   sql.NullString
		topTracks     sql.NullString
		expiresAt     time.Time
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := r.db.QueryRow(query, id).Scan(
		&sessionID, &sequence, &userID, &accessToken, &refreshToken, &tokenExpiry,
		&spotifyUserID, &displayName, &topTracks, &expiresAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session := models.NewSession(sequence, userID, time.Until(expiresAt))
	session.SetID(sessionID)
	session.SetExpiresAt(expiresAt)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)

	if accessToken.Valid && accessToken.String != "" {
		token := &oauth2.Token{AccessToken: accessToken.String}
		if refreshToken.Valid {
			token.RefreshToken = refreshToken.String
		}
		if tokenExpiry.Valid {
			token.Expiry = tokenExpiry.Time
		}
		session.SetToken(token)
	}

	if spotifyUserID.Valid || displayName.Valid {
		session.SetSpotifyProfile(spotifyUserID.String, displayName.String)
	}

	if topTracks.Valid && topTracks.String != "" {
		var ids []string
		if err := json.Unmarshal([]byte(topTracks.String), &ids); err != nil {
			return nil, fmt.Errorf("failed to decode top track ids: %w", err)
		}
		session.SetTopTrackIDs(ids)
	}

	return session, nil
}

// Update persists token, profile, and top-track changes for an existing session
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	topTracks, err := marshalTopTracks(session.TopTrackIDs())
	if err != nil {
		return err
	}

	token := session.Token()
	var accessToken, refreshToken, tokenExpiry any
	if token != nil {
		accessToken = token.AccessToken
		refreshToken = session.RefreshToken()
		tokenExpiry = token.Expiry
	}

	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_expires_at = ?,
		    spotify_user_id = ?, display_name = ?, top_track_ids = ?,
		    expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		accessToken, refreshToken, tokenExpiry,
		nullable(session.SpotifyUserID()), nullable(session.DisplayName()), topTracks,
		session.ExpiresAt(), now, session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID())
	}

	return nil
}

// Delete destroys a session and the token pair it owns
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	return nil
}

// DeleteExpired removes all sessions past their expiry and returns how many were removed
func (r *SessionRepository) DeleteExpired() (int, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// List retrieves all sessions matching the given criteria
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT id FROM sessions WHERE 1 = 1
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var sessions []*models.Session
	for _, id := range ids {
		session, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func marshalTopTracks(ids []string) (any, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode top track ids: %w", err)
	}
	return string(data), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
