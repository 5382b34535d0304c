package database

import (
	"context"
	"errors"
	"fmt"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	_ interfaces.GraphStore  = (*pgStoryGraphRepository)(nil)
	_ interfaces.GraphWriter = (*pgStoryGraphRepository)(nil)
)

const (
	getPageQuery = `
SELECT id, story_id, page_number, content, is_ending
FROM pages
WHERE id = $1`

	getChoiceQuery = `
SELECT id, from_page_id, to_page_id, choice_text, is_premium, cost, description, display_order
FROM choices
WHERE id = $1`

	getChoicesFromPageQuery = `
SELECT id, from_page_id, to_page_id, choice_text, is_premium, cost, description, display_order
FROM choices
WHERE from_page_id = $1
ORDER BY display_order, id`

	getFirstPageIDQuery = `
SELECT id
FROM pages
WHERE story_id = $1
ORDER BY page_number
LIMIT 1`

	getStoryMetadataQuery = `
SELECT id, title, description, category, spice_level, total_pages, author, cover_image, created_at
FROM stories
WHERE id = $1`

	upsertStoryQuery = `
INSERT INTO stories (id, title, description, category, spice_level, total_pages, author, cover_image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    spice_level = EXCLUDED.spice_level,
    total_pages = EXCLUDED.total_pages,
    author = EXCLUDED.author,
    cover_image = EXCLUDED.cover_image`

	upsertPageQuery = `
INSERT INTO pages (id, story_id, page_number, content, is_ending)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    page_number = EXCLUDED.page_number,
    content = EXCLUDED.content,
    is_ending = EXCLUDED.is_ending`

	upsertChoiceQuery = `
INSERT INTO choices (id, from_page_id, to_page_id, choice_text, is_premium, cost, description, display_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    to_page_id = EXCLUDED.to_page_id,
    choice_text = EXCLUDED.choice_text,
    is_premium = EXCLUDED.is_premium,
    cost = EXCLUDED.cost,
    description = EXCLUDED.description,
    display_order = EXCLUDED.display_order`
)

type pgStoryGraphRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryGraphRepository creates a Postgres-backed story graph store.
func NewPgStoryGraphRepository(pool *pgxpool.Pool, logger *zap.Logger) *pgStoryGraphRepository {
	return &pgStoryGraphRepository{
		pool:   pool,
		logger: logger.Named("PgStoryGraphRepo"),
	}
}

func (r *pgStoryGraphRepository) GetPage(ctx context.Context, pageID uuid.UUID) (*models.Page, error) {
	var page models.Page
	if err := pgxscan.Get(ctx, r.pool, &page, getPageQuery, pageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPageNotFound
		}
		r.logger.Error("Failed to get page", zap.Stringer("pageID", pageID), zap.Error(err))
		return nil, persistenceError("get page", err)
	}
	return &page, nil
}

func (r *pgStoryGraphRepository) GetChoice(ctx context.Context, choiceID uuid.UUID) (*models.Choice, error) {
	var choice models.Choice
	if err := pgxscan.Get(ctx, r.pool, &choice, getChoiceQuery, choiceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidChoice
		}
		r.logger.Error("Failed to get choice", zap.Stringer("choiceID", choiceID), zap.Error(err))
		return nil, persistenceError("get choice", err)
	}
	return &choice, nil
}

func (r *pgStoryGraphRepository) GetChoicesFromPage(ctx context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	choices := make([]models.Choice, 0)
	if err := pgxscan.Select(ctx, r.pool, &choices, getChoicesFromPageQuery, pageID); err != nil {
		r.logger.Error("Failed to list choices", zap.Stringer("pageID", pageID), zap.Error(err))
		return nil, persistenceError("list choices", err)
	}
	return choices, nil
}

func (r *pgStoryGraphRepository) GetFirstPageID(ctx context.Context, storyID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, getFirstPageIDQuery, storyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get first page", zap.Stringer("storyID", storyID), zap.Error(err))
		return uuid.Nil, persistenceError("get first page", err)
	}
	return id, nil
}

func (r *pgStoryGraphRepository) GetStoryMetadata(ctx context.Context, storyID uuid.UUID) (*models.StoryMetadata, error) {
	var meta models.StoryMetadata
	if err := pgxscan.Get(ctx, r.pool, &meta, getStoryMetadataQuery, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story metadata", zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, persistenceError("get story metadata", err)
	}
	return &meta, nil
}

// SaveStoryGraph записывает историю, страницы и выборы в одной транзакции.
// Выборы пишутся после всех страниц, чтобы внешние ключи to_page_id были валидны.
func (r *pgStoryGraphRepository) SaveStoryGraph(ctx context.Context, story models.StoryMetadata, pages []models.Page, choices []models.Choice) error {
	log := r.logger.With(zap.Stringer("storyID", story.ID))
	if story.TotalPages == 0 {
		story.TotalPages = len(pages)
	}

	err := WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertStoryQuery,
			story.ID, story.Title, story.Description, story.Category,
			story.SpiceLevel, story.TotalPages, story.Author, story.CoverImage,
		); err != nil {
			return fmt.Errorf("upsert story: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range pages {
			batch.Queue(upsertPageQuery, p.ID, story.ID, p.PageNumber, p.Content, p.IsEnding)
		}
		for _, c := range choices {
			batch.Queue(upsertChoiceQuery, c.ID, c.FromPageID, c.ToPageID, c.Text, c.IsPremium, c.Cost, c.Description, c.DisplayOrder)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert pages and choices: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to save story graph", zap.Error(err))
		return persistenceError("save story graph", err)
	}

	log.Info("Story graph saved", zap.Int("pages", len(pages)), zap.Int("choices", len(choices)))
	return nil
}
