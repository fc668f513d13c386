package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/service"
)

type NotificationController struct {
	notificationService service.NotificationService
	cronToken           string
}

func NewNotificationController(notificationService service.NotificationService, cronToken string) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		cronToken:           cronToken,
	}
}

func (nc *NotificationController) RegisterRoutes(e *echo.Echo) {
	e.POST("/internal/notifications/dispatch", nc.Dispatch)
}

// Dispatch runs the daily fan-out. The scheduled caller sends no payload;
// when a cron token is configured it must match the X-Cron-Token header.
func (nc *NotificationController) Dispatch(c echo.Context) error {
	if nc.cronToken != "" && c.Request().Header.Get("X-Cron-Token") != nc.cronToken {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid cron token"})
	}

	result, err := nc.notificationService.DispatchDaily(c.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("Notification dispatch failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to dispatch notifications"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":           true,
		"notificationsSent": result.NotificationsSent,
		"holidaysProcessed": result.HolidaysProcessed,
	})
}
