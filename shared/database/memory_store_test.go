package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"novel-reader/shared/database"
	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	storyID = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-000000000001")
	page1   = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000a1")
	page2   = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000a2")
	page4   = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000a4")
	choice1 = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000c1")
	choice2 = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000c2")
)

func seededStore(t *testing.T) *database.MemoryStore {
	t.Helper()
	fixtures, err := database.LoadGraphFixtures(database.SampleFixtures, "fixtures")
	require.NoError(t, err)
	store := database.NewMemoryStore()
	require.NoError(t, database.SeedGraphs(context.Background(), store, fixtures))
	return store
}

func TestMemoryStore_GraphLookups(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	first, err := store.GetFirstPageID(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, page1, first)

	choices, err := store.GetChoicesFromPage(ctx, page1)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, choice1, choices[0].ID)
	assert.Equal(t, choice2, choices[1].ID)
	assert.True(t, choices[1].IsPremium)
	assert.Equal(t, int64(10), choices[1].Cost)

	ending, err := store.GetChoicesFromPage(ctx, page4)
	require.NoError(t, err)
	assert.NotNil(t, ending)
	assert.Empty(t, ending)

	meta, err := store.GetStoryMetadata(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, "The Midnight Library", meta.Title)
	assert.Equal(t, 5, meta.TotalPages)

	t.Run("not found errors", func(t *testing.T) {
		_, err := store.GetPage(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrPageNotFound)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = store.GetChoice(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrInvalidChoice)

		_, err = store.GetFirstPageID(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrStoryNotFound)

		_, err = store.GetStoryMetadata(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
	})
}

func TestMemoryStore_SaveProgressMergesSets(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	userID := uuid.New()

	_, err := store.GetProgress(ctx, userID, storyID)
	assert.ErrorIs(t, err, models.ErrProgressNotFound)

	a := models.NewUserProgress(userID, storyID)
	a.CurrentPageID = page1
	a.CompletedPages.Add(page1)
	a.PurchasedChoices.Add(choice2)
	require.NoError(t, store.SaveProgress(ctx, a))

	// Устаревшая копия без покупки не должна ее стереть.
	b := models.NewUserProgress(userID, storyID)
	b.CurrentPageID = page2
	b.CompletedPages.Add(page2)
	require.NoError(t, store.SaveProgress(ctx, b))

	got, err := store.GetProgress(ctx, userID, storyID)
	require.NoError(t, err)
	assert.Equal(t, page2, got.CurrentPageID)
	assert.Equal(t, models.NewIDSet(page1, page2), got.CompletedPages)
	assert.True(t, got.HasPurchased(choice2))

	got.CompletedPages.Add(uuid.New())
	again, err := store.GetProgress(ctx, userID, storyID)
	require.NoError(t, err)
	assert.Len(t, again.CompletedPages, 2, "returned progress must be a copy")

	reset := models.NewUserProgress(userID, storyID)
	reset.CurrentPageID = page1
	reset.CompletedPages.Add(page1)
	require.NoError(t, store.ResetProgress(ctx, reset))
	got, err = store.GetProgress(ctx, userID, storyID)
	require.NoError(t, err)
	assert.Equal(t, models.NewIDSet(page1), got.CompletedPages)
	assert.Empty(t, got.PurchasedChoices)
}

func TestMemoryStore_Credit(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	userID := uuid.New()

	balance, err := store.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	balance, err = store.Credit(ctx, userID, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	_, err = store.Credit(ctx, userID, 0)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func buy(ctx context.Context, tx interfaces.LedgerTx, userID, choiceID uuid.UUID, cost int64) error {
	if _, err := tx.LockBalance(ctx, userID); err != nil {
		return err
	}
	if _, err := tx.DeductBalance(ctx, userID, cost); err != nil {
		return err
	}
	return tx.InsertPurchase(ctx, &models.Purchase{ID: uuid.New(), UserID: userID, StoryID: storyID, ChoiceID: choiceID, Cost: cost})
}

func TestMemoryStore_LedgerTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	userID := uuid.New()
	_, err := store.Credit(ctx, userID, 30)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		if err := buy(ctx, tx, userID, choice2, 10); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, _ := store.GetBalance(ctx, userID)
	assert.Equal(t, int64(30), balance)
	owned, _ := store.HasPurchase(ctx, userID, choice2)
	assert.False(t, owned)
}

func TestMemoryStore_LedgerTxCancelledContext(t *testing.T) {
	store := database.NewMemoryStore()
	userID := uuid.New()
	_, err := store.Credit(context.Background(), userID, 30)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	err = store.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		if err := buy(ctx, tx, userID, choice2, 10); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	balance, _ := store.GetBalance(context.Background(), userID)
	assert.Equal(t, int64(30), balance)
}

func TestMemoryStore_LedgerTxCommit(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	userID := uuid.New()
	_, err := store.Credit(ctx, userID, 30)
	require.NoError(t, err)

	err = store.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		if err := buy(ctx, tx, userID, choice2, 10); err != nil {
			return err
		}
		return tx.InsertChoiceHistory(ctx, &models.UserChoiceHistory{ID: uuid.New(), UserID: userID, StoryID: storyID, ChoiceID: choice2, CostPaid: 10, CreatedAt: time.Now()})
	})
	require.NoError(t, err)

	balance, _ := store.GetBalance(ctx, userID)
	assert.Equal(t, int64(20), balance)
	owned, _ := store.HasPurchase(ctx, userID, choice2)
	assert.True(t, owned)
	ids, err := store.ListPurchasedChoiceIDs(ctx, userID, storyID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{choice2}, ids)
	assert.Len(t, store.ChoiceHistory(userID), 1)

	// Повторная вставка той же покупки - конфликт.
	err = store.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		return buy(ctx, tx, userID, choice2, 10)
	})
	assert.ErrorIs(t, err, models.ErrAlreadyPurchased)
	balance, _ = store.GetBalance(ctx, userID)
	assert.Equal(t, int64(20), balance)
}

func TestMemoryStore_LedgerTxSerializesPerUser(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	userID := uuid.New()
	_, err := store.Credit(ctx, userID, 10)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
				return buy(ctx, tx, userID, uuid.New(), 10)
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	}
	assert.Equal(t, 1, succeeded)
	balance, _ := store.GetBalance(ctx, userID)
	assert.Zero(t, balance)
}
