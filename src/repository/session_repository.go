package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xerikson-cyber/Sirij-BOT/src/db"
	"github.com/xerikson-cyber/Sirij-BOT/src/models"
)

// SessionRepository handles all database operations for dialog
// sessions. One row per user; the serialized session travels in the
// payload column and the revision column backs the optimistic
// concurrency check.
type SessionRepository struct {
	db      *db.DB
	timeout time.Duration
	now     func() time.Time
}

// NewSessionRepository creates a new session repository. Sessions
// older than timeout (since last update) are treated as absent.
func NewSessionRepository(database *db.DB, timeout time.Duration) *SessionRepository {
	return &SessionRepository{
		db:      database,
		timeout: timeout,
		now:     time.Now,
	}
}

// Get retrieves the active session for a user. Expiry is checked
// lazily here: an expired row is deleted and reported as absent, so no
// background sweep is needed on the request path.
func (r *SessionRepository) Get(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		SELECT payload, revision, created_at, updated_at
		FROM dialog_sessions
		WHERE user_id = $1
	`

	var (
		payload   []byte
		revision  int64
		createdAt time.Time
		updatedAt time.Time
	)
	err := r.db.GetConnection().QueryRowContext(ctx, query, userID).Scan(
		&payload,
		&revision,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}
	session.Revision = revision
	session.CreatedAt = createdAt
	session.UpdatedAt = updatedAt

	if session.ExpiredAt(r.now(), r.timeout) {
		slog.Info("Session expired, deleting lazily",
			"user_id", userID,
			"session_id", session.SessionID)
		if err := r.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return nil, models.ErrSessionNotFound
	}

	return &session, nil
}

// Create inserts a fresh session for a user. The user_id primary key
// guarantees a second concurrent create cannot silently overwrite an
// in-progress dialog; it surfaces as ErrSessionExists instead.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	now := r.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.Revision = 1

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	query := `
		INSERT INTO dialog_sessions
		(user_id, session_id, status, current_question, payload, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.db.GetConnection().ExecContext(
		ctx,
		query,
		session.UserID,
		session.SessionID,
		session.Status,
		session.CurrentQuestion,
		payload,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrSessionExists
	}

	slog.Info("Created new session",
		"user_id", session.UserID,
		"session_id", session.SessionID)

	return nil
}

// Update persists a mutated session. The write only lands when the
// stored revision still matches the one the caller loaded; otherwise
// ErrSessionConflict is returned and the caller must discard its
// event. On success the session's revision is advanced.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	now := r.now()
	session.UpdatedAt = now

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	query := `
		UPDATE dialog_sessions
		SET status = $1, current_question = $2, payload = $3,
		    revision = revision + 1, updated_at = $4
		WHERE user_id = $5 AND revision = $6
	`

	result, err := r.db.GetConnection().ExecContext(
		ctx,
		query,
		session.Status,
		session.CurrentQuestion,
		payload,
		now,
		session.UserID,
		session.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrSessionConflict
	}

	session.Revision++
	return nil
}

// Delete removes a user's session. Deleting an absent session is not
// an error.
func (r *SessionRepository) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM dialog_sessions WHERE user_id = $1`

	if _, err := r.db.GetConnection().ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanExpired removes every session past the timeout and returns how
// many were dropped. Called from a maintenance ticker, not from the
// request path.
func (r *SessionRepository) CleanExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM dialog_sessions WHERE updated_at < $1`

	result, err := r.db.GetConnection().ExecContext(ctx, query, r.now().Add(-r.timeout))
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired sessions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed > 0 {
		slog.Info("Removed expired sessions", "count", removed)
	}
	return removed, nil
}
