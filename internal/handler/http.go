package handler

import (
	"errors"
	"net/http"

	"novel-reader/internal/evaluator"
	"novel-reader/internal/service"
	"novel-reader/shared/interfaces"
	sharedMiddleware "novel-reader/shared/middleware"
	"novel-reader/shared/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReaderHandler обрабатывает HTTP запросы читателя и внутренние запросы платежного сервиса.
type ReaderHandler struct {
	engine          service.StoryEngine
	userVerifier    interfaces.TokenVerifier
	serviceVerifier interfaces.TokenVerifier
	validate        *validator.Validate
	tension         evaluator.TensionWeights
	logger          *zap.Logger
}

// NewReaderHandler создает ReaderHandler.
func NewReaderHandler(engine service.StoryEngine, userVerifier, serviceVerifier interfaces.TokenVerifier, logger *zap.Logger) *ReaderHandler {
	return &ReaderHandler{
		engine:          engine,
		userVerifier:    userVerifier,
		serviceVerifier: serviceVerifier,
		validate:        validator.New(),
		tension:         evaluator.DefaultTensionWeights,
		logger:          logger.Named("ReaderHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса.
func (h *ReaderHandler) RegisterRoutes(e *echo.Echo) {
	authMiddleware := echo.WrapMiddleware(sharedMiddleware.AuthMiddleware(h.userVerifier.VerifyToken, h.logger))
	interServiceAuthMiddleware := sharedMiddleware.InterServiceAuthMiddleware(h.serviceVerifier, h.logger)

	storiesGroup := e.Group("/stories/:story_id", authMiddleware)
	{
		storiesGroup.POST("/navigate", h.navigate)
		storiesGroup.GET("/session", h.resume)
		storiesGroup.GET("/progress", h.getProgress)
		storiesGroup.POST("/restart", h.restart)
	}

	e.GET("/me/balance", h.getBalance, authMiddleware)

	internalGroup := e.Group("/internal", interServiceAuthMiddleware)
	{
		internalGroup.POST("/users/:user_id/balance/credit", h.creditBalance)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, models.ErrUnauthorized
	}
	return userID, nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, models.ErrBadRequest
	}
	return id, nil
}

func (h *ReaderHandler) sessionJSON(c echo.Context, session *models.StorySession) error {
	return c.JSON(http.StatusOK, sessionResponse{
		StorySession: session,
		Tension:      evaluator.ComputeTension(session.AvailableChoices, h.tension),
	})
}

func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "navigation failed"}
	}
	return c.JSON(statusCode, apiErr)
}

// outcomeLabel сводит ошибку к метке метрики.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrBadRequest):
		return "bad_request"
	default:
		return "error"
	}
}

func targetLabel(target models.NavigationTarget) string {
	switch target.(type) {
	case models.ByChoice:
		return "choice"
	case models.ByTargetPage:
		return "page"
	case models.Resume:
		return "resume"
	default:
		return "none"
	}
}
