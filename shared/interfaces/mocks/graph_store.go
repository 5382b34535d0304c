package mocks

import (
	"context"

	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// GraphStore is a testify mock of interfaces.GraphStore.
type GraphStore struct {
	mock.Mock
}

func (m *GraphStore) GetPage(ctx context.Context, pageID uuid.UUID) (*models.Page, error) {
	args := m.Called(ctx, pageID)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}

func (m *GraphStore) GetChoice(ctx context.Context, choiceID uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, choiceID)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}

func (m *GraphStore) GetChoicesFromPage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, pageID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}

func (m *GraphStore) GetFirstPageID(ctx context.Context, storyID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, storyID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *GraphStore) GetStoryMetadata(ctx context.Context, storyID uuid.UUID) (*models.StoryMetadata, error) {
	args := m.Called(ctx, storyID)
	meta, _ := args.Get(0).(*models.StoryMetadata)
	return meta, args.Error(1)
}
