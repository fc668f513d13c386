package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/repository"
)

const userContextKey = "authenticatedUser"

// BearerAuth resolves the Authorization bearer token to a user and stores it
// on the request context. Requests without a valid token get 401.
func BearerAuth(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
			}

			user, err := userRepo.GetByToken(c.Request().Context(), token)
			if err != nil {
				logrus.WithError(err).Error("Failed to resolve bearer token")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Authentication temporarily unavailable"})
			}
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func authenticatedUser(c echo.Context) *model.UserInfo {
	user, _ := c.Get(userContextKey).(*model.UserInfo)
	return user
}
