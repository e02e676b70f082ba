package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/search"
)

type UserRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type NoteRepository interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	GetNoteByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	FindNoteByTitle(ctx context.Context, title string) (*models.Note, error)
	CreateNote(ctx context.Context, n *models.Note) error
	SaveNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
	CountNotesByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SearchNotes(ctx context.Context, q string, offset, limit int) (int64, []models.Note, error)
}

// Revoker is an optional refresh-token denylist.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NoteIndex is an optional full-text index over notes.
type NoteIndex interface {
	IndexNote(ctx context.Context, doc search.NoteDocument) error
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, query string, from, size int) (int64, []search.NoteDocument, error)
}

func publish(ctx context.Context, p events.Publisher, topic, key, typ string, data map[string]any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, events.New(typ, data)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", typ, "error", err)
	}
}
