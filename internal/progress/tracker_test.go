package progress_test

import (
	"testing"
	"time"

	"novel-reader/internal/progress"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTracker() *progress.Tracker {
	return progress.NewTracker(func() time.Time { return fixedNow })
}

func TestAdvance(t *testing.T) {
	tracker := newTracker()
	userID, storyID := uuid.New(), uuid.New()
	page := models.Page{ID: uuid.New(), StoryID: storyID, PageNumber: 3}
	choiceID := uuid.New()

	current := models.NewUserProgress(userID, storyID)
	next, event := tracker.Advance(current, page, &choiceID)

	assert.Equal(t, page.ID, next.CurrentPageID)
	assert.True(t, next.CompletedPages.Has(page.ID))
	assert.Equal(t, fixedNow, next.LastReadAt)
	assert.Empty(t, current.CompletedPages, "input progress must not be mutated")

	assert.Equal(t, models.EventPageView, event.Type)
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, storyID, event.StoryID)
	assert.Equal(t, page.ID, event.PageID)
	require.NotNil(t, event.ChoiceID)
	assert.Equal(t, choiceID, *event.ChoiceID)
	assert.Equal(t, 3, event.Metadata[models.MetaPageNumber])
	assert.Equal(t, 1, event.Metadata[models.MetaCompletedCount])
}

func TestAdvance_RevisitIsIdempotent(t *testing.T) {
	tracker := newTracker()
	storyID := uuid.New()
	p1 := models.Page{ID: uuid.New(), StoryID: storyID, PageNumber: 1}
	p2 := models.Page{ID: uuid.New(), StoryID: storyID, PageNumber: 2}

	state := models.NewUserProgress(uuid.New(), storyID)
	state, _ = tracker.Advance(state, p1, nil)
	state, _ = tracker.Advance(state, p2, nil)
	state, event := tracker.Advance(state, p1, nil)

	assert.Len(t, state.CompletedPages, 2)
	assert.Equal(t, p1.ID, state.CurrentPageID)
	assert.True(t, state.CompletedPages.Has(p2.ID), "visited page stays visited after navigating away")
	assert.Nil(t, event.ChoiceID)
	assert.Equal(t, 2, event.Metadata[models.MetaCompletedCount])
}

func TestAdvance_EndingEmitsStoryCompleted(t *testing.T) {
	tracker := newTracker()
	ending := models.Page{ID: uuid.New(), StoryID: uuid.New(), IsEnding: true}

	_, event := tracker.Advance(models.NewUserProgress(uuid.New(), ending.StoryID), ending, nil)
	assert.Equal(t, models.EventStoryCompleted, event.Type)
}

func TestRecordPurchase(t *testing.T) {
	tracker := newTracker()
	state := models.NewUserProgress(uuid.New(), uuid.New())
	choiceID := uuid.New()

	next, event := tracker.RecordPurchase(state, choiceID)
	assert.True(t, next.HasPurchased(choiceID))
	assert.False(t, state.HasPurchased(choiceID))
	assert.Equal(t, models.EventPurchaseAttempt, event.Type)
	assert.Equal(t, 1, event.Metadata[models.MetaPurchaseTotal])

	again, event := tracker.RecordPurchase(next, choiceID)
	assert.Len(t, again.PurchasedChoices, 1, "redundant add must not duplicate")
	assert.Equal(t, 1, event.Metadata[models.MetaPurchaseTotal])
}

func TestReset(t *testing.T) {
	tracker := newTracker()
	storyID := uuid.New()
	first := models.Page{ID: uuid.New(), StoryID: storyID, PageNumber: 1}
	owned := uuid.New()

	state := models.NewUserProgress(uuid.New(), storyID)
	state.CompletedPages = models.NewIDSet(first.ID, uuid.New(), uuid.New())
	state.PurchasedChoices = models.NewIDSet(owned, uuid.New())
	state.CurrentPageID = uuid.New()

	next, event := tracker.Reset(state, first, models.NewIDSet(owned))
	assert.Equal(t, first.ID, next.CurrentPageID)
	assert.Equal(t, models.NewIDSet(first.ID), next.CompletedPages)
	assert.Equal(t, models.NewIDSet(owned), next.PurchasedChoices)
	assert.Equal(t, models.EventStoryRestarted, event.Type)
	assert.Equal(t, 1, event.Metadata[models.MetaCompletedCount], "completed_count matches the new state, as in Advance")
	assert.Equal(t, 3, event.Metadata[models.MetaCompletedBeforeRestart])
}
