package service

import (
	"fmt"

	"novel-reader/shared/models"
)

var (
	// ErrForeignPage - страница существует, но принадлежит другой истории.
	ErrForeignPage = fmt.Errorf("page belongs to another story: %w", models.ErrPageNotFound)
	// ErrNoTarget - в запросе нет способа определить страницу.
	ErrNoTarget = fmt.Errorf("navigation target is missing: %w", models.ErrInvalidRequest)
	// ErrPageNotReached - прямой переход на страницу, которую пользователь еще не открывал.
	ErrPageNotReached = fmt.Errorf("page has not been reached yet: %w", models.ErrForbidden)
)
