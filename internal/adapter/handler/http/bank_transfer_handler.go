package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	apperrors "github.com/seffafbagis/donation-platform/pkg/errors"
)

type BankTransferHandler struct {
	transfers *usecase.BankTransferService
	logger    *zap.Logger
}

func NewBankTransferHandler(transfers *usecase.BankTransferService, logger *zap.Logger) *BankTransferHandler {
	return &BankTransferHandler{transfers: transfers, logger: logger}
}

type createReferenceRequest struct {
	CampaignID     string `json:"campaign_id" validate:"required,uuid"`
	ExpectedAmount string `json:"expected_amount" validate:"required"`
}

// CreateReference issues a reference code plus transfer instructions.
func (h *BankTransferHandler) CreateReference(c echo.Context) error {
	var req createReferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid campaign id")
	}
	amount, err := decimal.NewFromString(req.ExpectedAmount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expected amount")
	}

	var donorID *uuid.UUID
	if user, ok := auth.GetAuthUser(c.Request().Context()); ok {
		donorID = &user.UserID
	}

	ref, err := h.transfers.CreateReference(c.Request().Context(), usecase.CreateReferenceInput{
		CampaignID:     campaignID,
		DonorID:        donorID,
		ExpectedAmount: amount,
	})
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"reference":    ref,
		"instructions": h.transfers.Instructions(ref),
	})
}

// GetReference looks up a reference and its instructions by code.
func (h *BankTransferHandler) GetReference(c echo.Context) error {
	ref, err := h.transfers.GetReference(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reference":    ref,
		"instructions": h.transfers.Instructions(ref),
	})
}

// CancelReference cancels the donor's own pending reference.
func (h *BankTransferHandler) CancelReference(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	if err := h.transfers.CancelReference(c.Request().Context(), c.Param("code"), user.UserID); err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyReferences returns the donor's pending references.
func (h *BankTransferHandler) ListMyReferences(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	refs, err := h.transfers.ListDonorReferences(c.Request().Context(), user.UserID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"references": refs})
}

type matchTransferRequest struct {
	ReferenceCode string `json:"reference_code" validate:"required"`
	ActualAmount  string `json:"actual_amount" validate:"required"`
	SenderName    string `json:"sender_name" validate:"omitempty,max=150"`
	SenderIBAN    string `json:"sender_iban" validate:"omitempty,max=34"`
}

// MatchTransfer records an incoming wire against a reference (admin).
func (h *BankTransferHandler) MatchTransfer(c echo.Context) error {
	var req matchTransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := decimal.NewFromString(req.ActualAmount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid actual amount")
	}

	donation, err := h.transfers.MatchTransfer(c.Request().Context(), usecase.MatchTransferInput{
		ReferenceCode: req.ReferenceCode,
		ActualAmount:  amount,
		SenderName:    req.SenderName,
		SenderIBAN:    req.SenderIBAN,
	})
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	h.logger.Info("Bank transfer matched",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("donation_id", donation.ID.String()))
	return c.JSON(http.StatusOK, donation)
}
