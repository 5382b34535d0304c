package models

import "github.com/google/uuid"

// StorySession - ответ движка на один вызов навигации.
type StorySession struct {
	StoryID          uuid.UUID          `json:"story_id"`
	CurrentPage      Page               `json:"current_page"`
	AvailableChoices []ChoiceEvaluation `json:"available_choices"`
	Progress         *UserProgress      `json:"progress"`
	Metadata         StoryMetadata      `json:"metadata"`
	Balance          int64              `json:"balance"`
}
