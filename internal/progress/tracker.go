// Package progress advances a reader's progress record and produces the matching
// analytics event. It never touches balances.
package progress

import (
	"time"

	"novel-reader/shared/models"

	"github.com/google/uuid"
)

// Tracker не имеет побочных эффектов: каждый метод возвращает новую копию прогресса.
type Tracker struct {
	now func() time.Time
}

// NewTracker создает трекер. clock == nil означает time.Now в UTC.
func NewTracker(clock func() time.Time) *Tracker {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{now: clock}
}

// Advance переводит пользователя на targetPage.
// Повторное посещение страницы не меняет CompletedPages, LastReadAt обновляется всегда.
func (t *Tracker) Advance(current *models.UserProgress, targetPage models.Page, choiceID *uuid.UUID) (*models.UserProgress, models.AnalyticsEvent) {
	next := current.Clone()
	if next == nil {
		next = models.NewUserProgress(uuid.Nil, targetPage.StoryID)
	}
	ts := t.now()

	next.CurrentPageID = targetPage.ID
	next.CompletedPages.Add(targetPage.ID)
	next.LastReadAt = ts

	eventType := models.EventPageView
	if targetPage.IsEnding {
		eventType = models.EventStoryCompleted
	}

	event := models.AnalyticsEvent{
		Type:      eventType,
		UserID:    next.UserID,
		StoryID:   next.StoryID,
		PageID:    targetPage.ID,
		ChoiceID:  copyID(choiceID),
		Timestamp: ts,
		Metadata: map[string]any{
			models.MetaPageNumber:     targetPage.PageNumber,
			models.MetaCompletedCount: len(next.CompletedPages),
		},
	}
	return next, event
}

// RecordPurchase добавляет выбор в PurchasedChoices. Повторное добавление безопасно.
// Вызывается только после того, как менеджер транзакций подтвердил владение.
func (t *Tracker) RecordPurchase(current *models.UserProgress, choiceID uuid.UUID) (*models.UserProgress, models.AnalyticsEvent) {
	next := current.Clone()
	if next == nil {
		next = models.NewUserProgress(uuid.Nil, uuid.Nil)
	}
	next.PurchasedChoices.Add(choiceID)

	event := models.AnalyticsEvent{
		Type:      models.EventPurchaseAttempt,
		UserID:    next.UserID,
		StoryID:   next.StoryID,
		PageID:    next.CurrentPageID,
		ChoiceID:  copyID(&choiceID),
		Timestamp: t.now(),
		Metadata: map[string]any{
			models.MetaPurchaseTotal: len(next.PurchasedChoices),
		},
	}
	return next, event
}

// Reset готовит прогресс для явного перезапуска истории: позиция на первой странице,
// CompletedPages содержит только ее, PurchasedChoices заменяются множеством owned
// (владение в реестре покупок постоянно, сбрасывать его нельзя).
func (t *Tracker) Reset(current *models.UserProgress, firstPage models.Page, owned models.IDSet) (*models.UserProgress, models.AnalyticsEvent) {
	next := models.NewUserProgress(current.UserID, current.StoryID)
	ts := t.now()
	next.CurrentPageID = firstPage.ID
	next.CompletedPages.Add(firstPage.ID)
	next.PurchasedChoices = owned.Clone()
	next.LastReadAt = ts

	event := models.AnalyticsEvent{
		Type:      models.EventStoryRestarted,
		UserID:    next.UserID,
		StoryID:   next.StoryID,
		PageID:    firstPage.ID,
		Timestamp: ts,
		Metadata: map[string]any{
			models.MetaPageNumber:             firstPage.PageNumber,
			models.MetaCompletedCount:         len(next.CompletedPages),
			models.MetaCompletedBeforeRestart: len(current.CompletedPages),
		},
	}
	return next, event
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
