package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"notekeeper/internal/models"
	"notekeeper/internal/repositories"
	"notekeeper/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListNotesInput selects a page of notes.
type ListNotesInput struct {
	Page   int    `query:"page" json:"page" validate:"gte=1,lte=1000000"`
	Limit  int    `query:"limit" json:"limit" validate:"gte=1,lte=100"`
	Search string `query:"search" json:"search" validate:"max=200"`
	Tag    string `query:"tag" json:"tag" validate:"max=50"`
}

// NotePage is one page of notes plus pagination metadata.
type NotePage struct {
	Notes       []models.Note `json:"notes"`
	Total       int64         `json:"total"`
	TotalPages  int           `json:"total_pages"`
	CurrentPage int           `json:"current_page"`
	Limit       int           `json:"limit"`
}

// CreateNoteInput is the body of a note creation request.
type CreateNoteInput struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required,max=10000"`
	Tags     []string `json:"tags" validate:"max=50,dive,max=50"`
	Color    string   `json:"color" validate:"max=32"`
	IsPinned bool     `json:"is_pinned"`
}

// UpdateNoteInput carries the fields to change; nil fields are left alone.
type UpdateNoteInput struct {
	Title    *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Content  *string   `json:"content" validate:"omitnil,min=1,max=10000"`
	Tags     *[]string `json:"tags" validate:"omitnil,max=50,dive,max=50"`
	Color    *string   `json:"color" validate:"omitnil,max=32"`
	IsPinned *bool     `json:"is_pinned"`
}

// NoteService handles business logic related to notes. Every operation is
// scoped to the owner passed in, which always comes from the session.
type NoteService struct {
	repo     repositories.NoteRepository
	validate *validator.Validate
}

// NewNoteService creates a new NoteService.
func NewNoteService(repo repositories.NoteRepository) *NoteService {
	return &NoteService{
		repo:     repo,
		validate: newValidator(),
	}
}

// ListNotes returns the owner's notes, pinned first then newest first.
func (s *NoteService) ListNotes(ctx context.Context, owner string, in ListNotesInput) (*NotePage, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = defaultPageSize
	}
	in.Search = strings.TrimSpace(in.Search)
	in.Tag = strings.TrimSpace(in.Tag)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	notes, total, err := s.repo.List(ctx, repositories.NoteQuery{
		AuthorID: owner,
		Search:   in.Search,
		Tag:      in.Tag,
		Offset:   (in.Page - 1) * in.Limit,
		Limit:    in.Limit,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &NotePage{
		Notes:       notes,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(in.Limit))),
		CurrentPage: in.Page,
		Limit:       in.Limit,
	}, nil
}

// GetNote retrieves a single note. Notes of other owners are reported as not found.
func (s *NoteService) GetNote(ctx context.Context, owner, id string) (*models.Note, error) {
	note, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, translateNoteErr(err)
	}
	return note, nil
}

// CreateNote stores a new note authored by owner.
func (s *NoteService) CreateNote(ctx context.Context, owner string, in CreateNoteInput) (*models.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = normalizeTags(in.Tags)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultNoteColor
	}
	note := &models.Note{
		AuthorID: owner,
		Title:    in.Title,
		Content:  in.Content,
		Tags:     in.Tags,
		IsPinned: in.IsPinned,
		Color:    color,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, apperr.Internal(err)
	}
	return note, nil
}

// UpdateNote applies the supplied fields to an owned note.
func (s *NoteService) UpdateNote(ctx context.Context, owner, id string, in UpdateNoteInput) (*models.Note, error) {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		in.Tags = &tags
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	note, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, translateNoteErr(err)
	}

	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Tags != nil {
		note.Tags = *in.Tags
	}
	if in.Color != nil {
		note.Color = strings.TrimSpace(*in.Color)
		if note.Color == "" {
			note.Color = models.DefaultNoteColor
		}
	}
	if in.IsPinned != nil {
		note.IsPinned = *in.IsPinned
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, translateNoteErr(err)
	}
	return note, nil
}

// DeleteNote permanently removes an owned note.
func (s *NoteService) DeleteNote(ctx context.Context, owner, id string) error {
	return translateNoteErr(s.repo.Delete(ctx, owner, id))
}

// ListTags returns the distinct tags across the owner's notes.
func (s *NoteService) ListTags(ctx context.Context, owner string) ([]string, error) {
	tags, err := s.repo.DistinctTags(ctx, owner)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tags, nil
}

// normalizeTags trims tags and drops empties and repeats, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func translateNoteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, "Note not found")
	}
	return apperr.Internal(err)
}
