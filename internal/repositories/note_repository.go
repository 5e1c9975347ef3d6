package repositories

import (
	"context"

	"notekeeper/internal/models"
)

// NoteQuery selects a page of one owner's notes.
type NoteQuery struct {
	AuthorID string
	Search   string
	Tag      string
	Offset   int
	Limit    int
}

// NoteRepository defines the interface for note data access. Every method
// is scoped to an author; a note owned by someone else is reported as
// ErrNotFound.
type NoteRepository interface {
	List(ctx context.Context, q NoteQuery) ([]models.Note, int64, error)
	GetByID(ctx context.Context, authorID, id string) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, authorID, id string) error
	DistinctTags(ctx context.Context, authorID string) ([]string, error)
}
