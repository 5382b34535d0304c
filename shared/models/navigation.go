package models

import (
	"github.com/google/uuid"
)

// NavigationTarget - закрытый набор способов указать следующую страницу:
// ByChoice, ByTargetPage, Resume. Реализовать интерфейс вне пакета нельзя.
type NavigationTarget interface {
	isNavigationTarget()
}

// ByChoice - переход по ребру графа.
type ByChoice struct {
	ChoiceID uuid.UUID
}

// ByTargetPage - явный прыжок на страницу (например, возврат к закладке).
type ByTargetPage struct {
	PageID uuid.UUID
}

// Resume - продолжить с сохраненной позиции или с первой страницы истории.
type Resume struct{}

func (ByChoice) isNavigationTarget()     {}
func (ByTargetPage) isNavigationTarget() {}
func (Resume) isNavigationTarget()       {}

// NavigationRequest - входные данные для StoryEngine.Navigate.
type NavigationRequest struct {
	UserID  uuid.UUID
	StoryID uuid.UUID
	Target  NavigationTarget
}

// NewNavigationRequest собирает запрос из необязательных идентификаторов, пришедших из API.
// Если заданы оба - это ошибка клиента.
func NewNavigationRequest(userID, storyID uuid.UUID, choiceID, targetPageID *uuid.UUID) (NavigationRequest, error) {
	req := NavigationRequest{UserID: userID, StoryID: storyID}
	switch {
	case choiceID != nil && targetPageID != nil:
		return req, ErrInvalidRequest
	case choiceID != nil:
		req.Target = ByChoice{ChoiceID: *choiceID}
	case targetPageID != nil:
		req.Target = ByTargetPage{PageID: *targetPageID}
	default:
		req.Target = Resume{}
	}
	return req, nil
}
