package database

import (
	"context"
	"errors"
	"fmt"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.ProgressRepository = (*pgUserProgressRepository)(nil)

const getUserProgressQuery = `
SELECT user_id, story_id, current_page_id, completed_pages, purchased_choices, last_read_at
FROM user_progress
WHERE user_id = $1 AND story_id = $2`

// Множества объединяются на стороне БД, указатель страницы перезаписывается.
const saveUserProgressQuery = `
INSERT INTO user_progress (user_id, story_id, current_page_id, completed_pages, purchased_choices, last_read_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, story_id) DO UPDATE SET
    current_page_id = EXCLUDED.current_page_id,
    completed_pages = ARRAY(SELECT DISTINCT unnest(user_progress.completed_pages || EXCLUDED.completed_pages)),
    purchased_choices = ARRAY(SELECT DISTINCT unnest(user_progress.purchased_choices || EXCLUDED.purchased_choices)),
    last_read_at = EXCLUDED.last_read_at`

const resetUserProgressQuery = `
INSERT INTO user_progress (user_id, story_id, current_page_id, completed_pages, purchased_choices, last_read_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, story_id) DO UPDATE SET
    current_page_id = EXCLUDED.current_page_id,
    completed_pages = EXCLUDED.completed_pages,
    purchased_choices = EXCLUDED.purchased_choices,
    last_read_at = EXCLUDED.last_read_at`

type pgUserProgressRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserProgressRepository creates a new repository instance.
func NewPgUserProgressRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.ProgressRepository {
	return &pgUserProgressRepository{
		db:     pool,
		logger: logger.Named("PgUserProgressRepo"),
	}
}

func (r *pgUserProgressRepository) GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}
	progress := &models.UserProgress{}
	var completed, purchased pq.StringArray

	err := r.db.QueryRow(ctx, getUserProgressQuery, userID, storyID).Scan(
		&progress.UserID,
		&progress.StoryID,
		&progress.CurrentPageID,
		&completed,
		&purchased,
		&progress.LastReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProgressNotFound
		}
		r.logger.Error("Failed to get user progress", append(logFields, zap.Error(err))...)
		return nil, persistenceError("get progress", err)
	}

	if progress.CompletedPages, err = idSetFromStrings(completed); err != nil {
		r.logger.Error("Corrupted completed_pages", append(logFields, zap.Error(err))...)
		return nil, persistenceError("decode completed pages", err)
	}
	if progress.PurchasedChoices, err = idSetFromStrings(purchased); err != nil {
		r.logger.Error("Corrupted purchased_choices", append(logFields, zap.Error(err))...)
		return nil, persistenceError("decode purchased choices", err)
	}

	r.logger.Debug("Retrieved user progress", logFields...)
	return progress, nil
}

func (r *pgUserProgressRepository) SaveProgress(ctx context.Context, progress *models.UserProgress) error {
	return r.write(ctx, saveUserProgressQuery, "save progress", progress)
}

func (r *pgUserProgressRepository) ResetProgress(ctx context.Context, progress *models.UserProgress) error {
	return r.write(ctx, resetUserProgressQuery, "reset progress", progress)
}

func (r *pgUserProgressRepository) write(ctx context.Context, query, op string, progress *models.UserProgress) error {
	if progress == nil {
		return fmt.Errorf("%w: nil progress", models.ErrBadRequest)
	}
	logFields := []zap.Field{
		zap.Stringer("userID", progress.UserID),
		zap.Stringer("storyID", progress.StoryID),
		zap.Stringer("currentPageID", progress.CurrentPageID),
	}

	_, err := r.db.Exec(ctx, query,
		progress.UserID,
		progress.StoryID,
		progress.CurrentPageID,
		pq.Array(progress.CompletedPages.Strings()),
		pq.Array(progress.PurchasedChoices.Strings()),
		progress.LastReadAt,
	)
	if err != nil {
		r.logger.Error("Failed to write user progress", append(logFields, zap.String("op", op), zap.Error(err))...)
		return persistenceError(op, err)
	}
	r.logger.Debug("User progress written", append(logFields, zap.String("op", op))...)
	return nil
}

func idSetFromStrings(values []string) (models.IDSet, error) {
	set := make(models.IDSet, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
		set.Add(id)
	}
	return set, nil
}
