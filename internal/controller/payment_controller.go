package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/repository"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/service"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/stripe"
)

type PaymentController struct {
	paymentService service.PaymentService
	userRepo       repository.UserRepository
}

func NewPaymentController(
	paymentService service.PaymentService,
	userRepo repository.UserRepository,
) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		userRepo:       userRepo,
	}
}

func (pc *PaymentController) RegisterRoutes(e *echo.Echo) {
	likes := e.Group("/api/likes", BearerAuth(pc.userRepo))
	likes.POST("/verify-payment", pc.VerifyPayment)
}

type VerifyPaymentRequest struct {
	SessionID string `json:"session_id"`
}

func (pc *PaymentController) VerifyPayment(c echo.Context) error {
	user := authenticatedUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	result, err := pc.paymentService.VerifyAndCredit(c.Request().Context(), user, req.SessionID)
	if err != nil {
		return pc.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":           true,
		"new_balance":       result.NewBalance,
		"likes_added":       result.LikesAdded,
		"already_processed": result.AlreadyProcessed,
	})
}

func (pc *PaymentController) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidSessionID):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "A valid session_id is required"})
	case errors.Is(err, service.ErrPaymentNotComplete):
		// Retryable: the checkout may still complete.
		return c.JSON(http.StatusPaymentRequired, map[string]string{"error": "Payment has not completed yet"})
	case errors.Is(err, service.ErrEmailMismatch):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Session does not belong to this account"})
	case errors.Is(err, service.ErrPurchaseNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No pending purchase found for this session"})
	case errors.Is(err, service.ErrUnknownPack),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrChargeMismatch):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Purchase failed validation"})
	case errors.Is(err, stripe.ErrSessionLookupFailed):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Payment provider unavailable, try again"})
	default:
		logrus.WithError(err).Error("Payment verification failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to verify payment"})
	}
}
