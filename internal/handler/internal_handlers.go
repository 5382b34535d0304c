package handler

import (
	"net/http"

	"novel-reader/shared/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// creditBalance пополняет баланс пользователя. Вызывается платежным сервисом.
func (h *ReaderHandler) creditBalance(c echo.Context) error {
	userID, err := parseUUIDParam(c, "user_id")
	if err != nil {
		balanceCreditsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid user ID format"})
	}

	var req creditRequest
	if err := c.Bind(&req); err != nil {
		balanceCreditsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		balanceCreditsTotal.WithLabelValues("bad_request").Inc()
		return handleServiceError(c, models.ErrInvalidAmount)
	}

	source, _ := c.Get(string(models.SourceServiceContextKey)).(string)
	balance, err := h.engine.CreditBalance(c.Request().Context(), userID, req.Amount)
	if err != nil {
		balanceCreditsTotal.WithLabelValues("error").Inc()
		return handleServiceError(c, err)
	}

	balanceCreditsTotal.WithLabelValues("ok").Inc()
	h.logger.Info("Balance credited",
		zap.Stringer("userID", userID),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", balance),
		zap.String("sourceService", source),
	)
	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}
