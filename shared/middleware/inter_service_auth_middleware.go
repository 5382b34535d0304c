package middleware

import (
	"errors"
	"net/http"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InternalServiceTokenHeader - заголовок межсервисного токена.
const InternalServiceTokenHeader = "X-Internal-Service-Token"

// InterServiceAuthMiddleware создает Echo middleware для проверки межсервисного JWT.
// Имя сервиса-источника (Subject) кладется в echo.Context.
func InterServiceAuthMiddleware(verifier interfaces.TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.With(zap.String("path", c.Request().URL.Path))

			tokenString := c.Request().Header.Get(InternalServiceTokenHeader)
			if tokenString == "" {
				log.Warn("Inter-service token header missing")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Missing inter-service token")
			}

			claims, err := verifier.VerifyInterServiceToken(c.Request().Context(), tokenString)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "Unauthorized: Invalid inter-service token"
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					msg = "Unauthorized: Inter-service token expired"
				case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				default:
					log.Error("Unexpected inter-service token verification error", zap.Error(err))
					status = http.StatusInternalServerError
					msg = "Internal server error during inter-service token verification"
				}
				log.Warn("Inter-service token verification failed", zap.Error(err))
				return echo.NewHTTPError(status, msg)
			}

			c.Set(string(models.SourceServiceContextKey), claims.Subject)
			log.Debug("Inter-service request authorized", zap.String("sourceService", claims.Subject))
			return next(c)
		}
	}
}
