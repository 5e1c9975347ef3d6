package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"notekeeper/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMNoteRepository is a GORM implementation of NoteRepository.
type GORMNoteRepository struct {
	db *gorm.DB
}

// NewGORMNoteRepository creates a new instance of GORMNoteRepository.
func NewGORMNoteRepository(db *gorm.DB) *GORMNoteRepository {
	return &GORMNoteRepository{
		db: db,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchText folds case with Unicode rules. SQLite's LOWER only folds
// ASCII, so the comparison never happens in SQL.
func searchText(note *models.Note) string {
	return strings.ToLower(note.Title) + "\n" + strings.ToLower(note.Content)
}

// noteFilter narrows the query to one author plus the optional search text and tag.
func noteFilter(q NoteQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("author_id = ?", q.AuthorID)
		if q.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(q.Search)) + "%"
			db = db.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
		}
		if q.Tag != "" {
			// tags are stored as a JSON array; match the quoted element
			encoded, _ := json.Marshal(q.Tag)
			db = db.Where(`tags LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(string(encoded))+"%")
		}
		return db
	}
}

// List returns one page of the author's notes, pinned first and newest
// first, along with the total number of matches.
func (r *GORMNoteRepository) List(ctx context.Context, q NoteQuery) ([]models.Note, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Note{}).Scopes(noteFilter(q)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	notes := make([]models.Note, 0)
	err := r.db.WithContext(ctx).
		Scopes(noteFilter(q)).
		Order("is_pinned DESC").
		Order("created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&notes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, total, nil
}

// GetByID retrieves a single note owned by authorID.
func (r *GORMNoteRepository) GetByID(ctx context.Context, authorID, id string) (*models.Note, error) {
	var note models.Note
	err := r.db.WithContext(ctx).First(&note, "id = ? AND author_id = ?", id, authorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("note with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get note by ID %s: %w", id, err)
	}
	return &note, nil
}

// Create creates a new note in the database.
func (r *GORMNoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	note.SearchText = searchText(note)
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update writes the mutable fields of note. The author and creation time
// are never changed.
func (r *GORMNoteRepository) Update(ctx context.Context, note *models.Note) error {
	note.SearchText = searchText(note)
	res := r.db.WithContext(ctx).
		Model(note).
		Where("author_id = ?", note.AuthorID).
		Select("title", "content", "search_text", "tags", "is_pinned", "color", "updated_at").
		Updates(note)
	if res.Error != nil {
		return fmt.Errorf("failed to update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note with ID %s: %w", note.ID, ErrNotFound)
	}
	return nil
}

// Delete permanently removes a note owned by authorID.
func (r *GORMNoteRepository) Delete(ctx context.Context, authorID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Note{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DistinctTags returns every tag used across the author's notes, sorted.
func (r *GORMNoteRepository) DistinctTags(ctx context.Context, authorID string) ([]string, error) {
	var notes []models.Note
	if err := r.db.WithContext(ctx).Select("tags").Where("author_id = ?", authorID).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, n := range notes {
		for _, tag := range n.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}
