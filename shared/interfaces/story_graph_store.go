package interfaces

import (
	"context"

	"novel-reader/shared/models"

	"github.com/google/uuid"
)

// GraphStore defines read access to published story graphs.
//
//go:generate mockery --name GraphStore --output ./mocks --outpkg mocks --case=underscore
type GraphStore interface {
	// GetPage returns models.ErrPageNotFound if the page does not exist.
	GetPage(ctx context.Context, pageID uuid.UUID) (*models.Page, error)

	// GetChoice returns models.ErrInvalidChoice if the choice does not exist.
	GetChoice(ctx context.Context, choiceID uuid.UUID) (*models.Choice, error)

	// GetChoicesFromPage returns outgoing choices in authoring-defined display order.
	// A page without choices yields an empty slice, not an error.
	GetChoicesFromPage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error)

	// GetFirstPageID returns models.ErrStoryNotFound if the story has no starting page.
	GetFirstPageID(ctx context.Context, storyID uuid.UUID) (uuid.UUID, error)

	// GetStoryMetadata returns models.ErrStoryNotFound if the story does not exist.
	GetStoryMetadata(ctx context.Context, storyID uuid.UUID) (*models.StoryMetadata, error)
}

// GraphWriter используется только для загрузки фикстур и CLI, движок его не вызывает.
type GraphWriter interface {
	SaveStoryGraph(ctx context.Context, story models.StoryMetadata, pages []models.Page, choices []models.Choice) error
}
