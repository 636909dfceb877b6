package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/provider"
	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	apperrors "github.com/seffafbagis/donation-platform/pkg/errors"
)

type PaymentHandler struct {
	payments     *usecase.PaymentService
	transactions *usecase.TransactionService
	logger       *zap.Logger
}

func NewPaymentHandler(
	payments *usecase.PaymentService,
	transactions *usecase.TransactionService,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		transactions: transactions,
		logger:       logger,
	}
}

type initiate3DSRequest struct {
	DonationID   string `json:"donation_id" validate:"omitempty,uuid"`
	SessionID    string `json:"session_id" validate:"omitempty,uuid"`
	HolderName   string `json:"holder_name" validate:"required,max=100"`
	CardNumber   string `json:"card_number" validate:"required,min=12,max=19"`
	ExpireMonth  string `json:"expire_month" validate:"required,len=2"`
	ExpireYear   string `json:"expire_year" validate:"required,min=2,max=4"`
	CVC          string `json:"cvc" validate:"required,min=3,max=4"`
	RegisterCard bool   `json:"register_card"`
}

// Initiate3DS starts a 3-D Secure flow for a donation or a cart.
func (h *PaymentHandler) Initiate3DS(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req initiate3DSRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := usecase.Initiate3DSInput{
		ActorID: user.UserID,
		Card: provider.Card{
			HolderName:   req.HolderName,
			Number:       req.CardNumber,
			ExpireMonth:  req.ExpireMonth,
			ExpireYear:   req.ExpireYear,
			CVC:          req.CVC,
			RegisterCard: req.RegisterCard,
		},
	}
	if req.DonationID != "" {
		id, err := uuid.Parse(req.DonationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
		}
		input.DonationID = &id
	}
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
		}
		input.SessionID = &id
	}

	result, err := h.payments.Initiate3DS(c.Request().Context(), input)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Callback3DS is hit by the gateway after the bank challenge. It accepts
// form posts, which is how iyzico redirects the browser back.
func (h *PaymentHandler) Callback3DS(c echo.Context) error {
	paymentID := c.FormValue("paymentId")
	conversationID := c.FormValue("conversationId")
	if paymentID == "" || conversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing paymentId or conversationId")
	}

	if err := h.payments.Complete3DSCallback(c.Request().Context(), paymentID, conversationID); err != nil {
		h.logger.Error("3DS callback processing failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return apperrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "processed"})
}

// ExecuteRefund pushes a requested refund through the gateway (admin).
func (h *PaymentHandler) ExecuteRefund(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	if err := h.payments.ExecuteRefund(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "refunded"})
}

// GetDonationTransaction returns the audit record behind a donation.
func (h *PaymentHandler) GetDonationTransaction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	tx, err := h.transactions.GetByDonation(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, tx)
}
