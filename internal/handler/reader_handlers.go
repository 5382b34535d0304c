package handler

import (
	"errors"
	"net/http"

	"novel-reader/shared/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (h *ReaderHandler) navigate(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
	}

	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
	}
	choiceID, err := optionalUUID(req.ChoiceID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid choice ID format"})
	}
	targetPageID, err := optionalUUID(req.TargetPageID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid target page ID format"})
	}

	navReq, err := models.NewNavigationRequest(userID, storyID, choiceID, targetPageID)
	if err != nil {
		navigationsTotal.WithLabelValues("none", outcomeLabel(err)).Inc()
		return handleServiceError(c, err)
	}
	return h.runNavigation(c, navReq)
}

// resume - GET-вариант навигации без цели.
func (h *ReaderHandler) resume(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
	}
	return h.runNavigation(c, models.NavigationRequest{UserID: userID, StoryID: storyID, Target: models.Resume{}})
}

func (h *ReaderHandler) runNavigation(c echo.Context, req models.NavigationRequest) error {
	session, err := h.engine.Navigate(c.Request().Context(), req)
	navigationsTotal.WithLabelValues(targetLabel(req.Target), outcomeLabel(err)).Inc()
	if err != nil {
		if outcomeLabel(err) == "error" {
			h.logger.Error("Navigation failed",
				zap.Stringer("userID", req.UserID),
				zap.Stringer("storyID", req.StoryID),
				zap.Error(err),
			)
		}
		return handleServiceError(c, err)
	}
	return h.sessionJSON(c, session)
}

func (h *ReaderHandler) getProgress(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
	}

	progress, err := h.engine.GetProgress(c.Request().Context(), userID, storyID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("Failed to get progress", zap.Stringer("userID", userID), zap.Stringer("storyID", storyID), zap.Error(err))
		}
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

func (h *ReaderHandler) restart(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "story_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid story ID format"})
	}

	session, err := h.engine.Restart(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	restartsTotal.Inc()
	return h.sessionJSON(c, session)
}

func (h *ReaderHandler) getBalance(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	balance, err := h.engine.GetBalance(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get balance", zap.Stringer("userID", userID), zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}
