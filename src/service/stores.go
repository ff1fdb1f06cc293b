package service

import (
	"context"
	"io"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
	"github.com/xerikson-cyber/Sirij-BOT/src/repository"
)

// SessionStore is the persistence capability the dialog engine needs
// for in-progress sessions. The Postgres repository implements it;
// tests substitute an in-memory fake.
type SessionStore interface {
	// Get returns the user's active session or models.ErrSessionNotFound.
	Get(ctx context.Context, userID int64) (*models.Session, error)
	// Create inserts a fresh session; models.ErrSessionExists when one
	// is already active.
	Create(ctx context.Context, session *models.Session) error
	// Update persists a mutated session; models.ErrSessionConflict
	// when the loaded revision is stale.
	Update(ctx context.Context, session *models.Session) error
	// Delete removes the user's session. Absence is not an error.
	Delete(ctx context.Context, userID int64) error
}

// BriefingStore persists finalized briefing records.
type BriefingStore interface {
	Insert(ctx context.Context, b *models.Briefing) (int64, error)
}

// BriefingReader is the read-side capability behind the reporting
// endpoints.
type BriefingReader interface {
	GetByID(ctx context.Context, id int64) (*models.Briefing, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Briefing, error)
	Statistics(ctx context.Context, from, to string) (int, []repository.CountByGroup, []repository.CountByGroup, error)
	ExportCSV(ctx context.Context, w io.Writer, from, to string) (int, error)
}

// PhotoStore stores an image payload and returns an opaque reference.
type PhotoStore interface {
	Store(payload []byte) (string, error)
}

// EventPublisher broadcasts domain events after finalization. A nil
// publisher disables eventing.
type EventPublisher interface {
	Publish(exchange string, body []byte) error
}
