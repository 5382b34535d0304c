package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryMetadata - опубликованная история. Движок только читает эти данные.
type StoryMetadata struct {
	ID          uuid.UUID `db:"id" json:"id" yaml:"id"`
	Title       string    `db:"title" json:"title" yaml:"title"`
	Description string    `db:"description" json:"description" yaml:"description"`
	Category    string    `db:"category" json:"category" yaml:"category"`
	SpiceLevel  int       `db:"spice_level" json:"spice_level" yaml:"spice_level"`
	TotalPages  int       `db:"total_pages" json:"total_pages" yaml:"total_pages"`
	Author      string    `db:"author" json:"author" yaml:"author"`
	CoverImage  *string   `db:"cover_image" json:"cover_image,omitempty" yaml:"cover_image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// Page - узел графа истории.
type Page struct {
	ID         uuid.UUID `db:"id" json:"id" yaml:"id"`
	StoryID    uuid.UUID `db:"story_id" json:"story_id" yaml:"-"`
	PageNumber int       `db:"page_number" json:"page_number" yaml:"page_number"`
	Content    string    `db:"content" json:"content" yaml:"content"`
	IsEnding   bool      `db:"is_ending" json:"is_ending" yaml:"is_ending"`
}

// Choice - ребро графа. Cost имеет смысл только при IsPremium.
// DisplayOrder задает порядок, в котором автор расположил варианты на странице.
type Choice struct {
	ID           uuid.UUID `db:"id" json:"id" yaml:"id"`
	FromPageID   uuid.UUID `db:"from_page_id" json:"from_page_id" yaml:"-"`
	ToPageID     uuid.UUID `db:"to_page_id" json:"to_page_id" yaml:"to_page_id"`
	Text         string    `db:"choice_text" json:"text" yaml:"text"`
	IsPremium    bool      `db:"is_premium" json:"is_premium" yaml:"is_premium"`
	Cost         int64     `db:"cost" json:"cost" yaml:"cost"`
	Description  *string   `db:"description" json:"description,omitempty" yaml:"description,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order" yaml:"-"`
}
