package models

import "time"

// SessionStatus represents where a user's dialog currently stands.
type SessionStatus string

const (
	StatusAwaitingStartConfirmation SessionStatus = "awaiting_start_confirmation"
	StatusAwaitingSessionDecision   SessionStatus = "awaiting_existing_session_decision"
	StatusAwaitingAnswer            SessionStatus = "awaiting_answer"
	StatusAwaitingPhoto             SessionStatus = "awaiting_photo"
	StatusAwaitingFinalConfirmation SessionStatus = "awaiting_final_confirmation"

	// Terminal statuses: the session row no longer exists when these
	// are reported, they only label replies.
	StatusCancelled SessionStatus = "cancelled"
	StatusCompleted SessionStatus = "completed"

	// StatusIdle labels replies sent when the user has no session.
	StatusIdle SessionStatus = "idle"
)

// Session is one user's in-progress briefing dialog. At most one
// exists per user. Answers only grows; entries are never replaced
// because the engine advances past a question once it is answered.
type Session struct {
	SessionID       string           `json:"session_id"`
	UserID          int64            `json:"user_id"`
	Status          SessionStatus    `json:"status"`
	CurrentQuestion string           `json:"current_question,omitempty"`
	Answers         map[string]Value `json:"answers"`
	MediaRefs       []string         `json:"media_refs,omitempty"`

	// ResumeStatus holds the status to restore when the user chooses
	// to continue after a second /start interrupted the dialog.
	ResumeStatus SessionStatus `json:"resume_status,omitempty"`

	Revision        int64            `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Answer returns the stored answer for a question key.
func (s *Session) Answer(key string) (Value, bool) {
	v, ok := s.Answers[key]
	return v, ok
}

// SetAnswer records a normalized answer.
func (s *Session) SetAnswer(key string, v Value) {
	if s.Answers == nil {
		s.Answers = make(map[string]Value)
	}
	s.Answers[key] = v
}

// ExpiredAt reports whether the session has outlived the timeout as of
// the given instant. Expiry is measured from the last update so an
// active user is never timed out mid-form.
func (s *Session) ExpiredAt(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.UpdatedAt) > timeout
}
