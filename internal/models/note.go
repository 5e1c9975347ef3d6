package models

import "time"

// DefaultNoteColor is applied when a note is created without a color.
const DefaultNoteColor = "#ffffff"

// Note is a piece of content owned by exactly one user.
type Note struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `json:"author" gorm:"type:varchar(36);not null;index:idx_notes_author_created,priority:1"`
	Title     string    `json:"title" gorm:"type:varchar(200);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Tags      []string  `json:"tags" gorm:"serializer:json;type:text"`
	IsPinned  bool      `json:"is_pinned" gorm:"not null;default:false"`
	Color     string    `json:"color" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_notes_author_created,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`
	// SearchText is the lower-cased title and content, folded in Go so
	// non-ASCII letters match on every driver.
	SearchText string `json:"-" gorm:"type:text;not null;default:''"`
}
