package middleware

import (
	"net/http"
	"strings"

	"github.com/StackTheCode/invoice-shield/pkg/jwtutil"
	"github.com/StackTheCode/invoice-shield/pkg/logger"
	"github.com/StackTheCode/invoice-shield/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the JWT token and extracts claims
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		prometheus.AuthAttemptsCounter.Inc()

		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		prometheus.AuthSuccessCounter.Inc()

		// Store user and company information in the context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("company_id", claims.CompanyID)
		c.Set("role", claims.Role)

		log = log.With(
			zap.String("user_id", claims.UserID.String()),
			zap.String("company_id", claims.CompanyID.String()),
			zap.String("email", claims.Email),
		)
		c.Set("logger", log)

		return next(c)
	}
}

// RequireCompanyContext ensures the request has company context in the JWT.
// Tenant-scoped resources are unreachable without it; there is no implicit
// default company.
func RequireCompanyContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		companyID, ok := c.Get("company_id").(uuid.UUID)
		if !ok || companyID == uuid.Nil {
			log.Warn("Missing company context")
			prometheus.CompanyContextMissingCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "company context required",
			})
		}

		return next(c)
	}
}
