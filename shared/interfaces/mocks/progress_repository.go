package mocks

import (
	"context"

	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ProgressRepository is a testify mock of interfaces.ProgressRepository.
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error) {
	args := m.Called(ctx, userID, storyID)
	progress, _ := args.Get(0).(*models.UserProgress)
	return progress, args.Error(1)
}

func (m *ProgressRepository) SaveProgress(ctx context.Context, progress *models.UserProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *ProgressRepository) ResetProgress(ctx context.Context, progress *models.UserProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}
