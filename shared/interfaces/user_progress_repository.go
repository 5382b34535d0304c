package interfaces

import (
	"context"
	"novel-reader/shared/models"

	"github.com/google/uuid"
)

// ProgressRepository defines the interface for interacting with user progress data.
//
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
type ProgressRepository interface {
	// GetProgress retrieves the user's progress for a story.
	// Returns models.ErrProgressNotFound if the user never navigated into the story.
	GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error)

	// SaveProgress creates or updates the record. The page pointer and LastReadAt are
	// overwritten; CompletedPages and PurchasedChoices are merged with the stored sets
	// (set union), so a concurrent save never drops an element.
	SaveProgress(ctx context.Context, progress *models.UserProgress) error

	// ResetProgress overwrites the record as-is, including shrinking the sets.
	// Used only by the explicit restart operation.
	ResetProgress(ctx context.Context, progress *models.UserProgress) error
}
