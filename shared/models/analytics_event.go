package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsEventType - тип события аналитики.
type AnalyticsEventType string

const (
	EventPageView       AnalyticsEventType = "page_view"
	EventStoryCompleted AnalyticsEventType = "story_completed"
	// EventPurchaseAttempt фактически означает "покупка записана".
	EventPurchaseAttempt AnalyticsEventType = "purchase_attempt"
	EventStoryRestarted  AnalyticsEventType = "story_restarted"
)

// Ключи метаданных событий.
const (
	MetaPageNumber     = "page_number"
	MetaCompletedCount = "completed_count"
	MetaPurchaseTotal  = "purchase_total"

	// MetaCompletedBeforeRestart - сколько страниц было прочитано до перезапуска.
	MetaCompletedBeforeRestart = "completed_before_restart"
)

// AnalyticsEvent отправляется во внешний sink по принципу fire-and-forget.
type AnalyticsEvent struct {
	Type      AnalyticsEventType `json:"type"`
	UserID    uuid.UUID          `json:"user_id"`
	StoryID   uuid.UUID          `json:"story_id"`
	PageID    uuid.UUID          `json:"page_id"`
	ChoiceID  *uuid.UUID         `json:"choice_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
}
