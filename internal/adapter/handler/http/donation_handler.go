package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	apperrors "github.com/seffafbagis/donation-platform/pkg/errors"
)

type DonationHandler struct {
	donations *usecase.DonationService
	logger    *zap.Logger
}

func NewDonationHandler(donations *usecase.DonationService, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, logger: logger}
}

type createDonationRequest struct {
	CampaignID  string `json:"campaign_id" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
	IsAnonymous bool   `json:"is_anonymous"`
	DonorName   string `json:"donor_name" validate:"omitempty,max=100"`
	Message     string `json:"message" validate:"omitempty,max=500"`
}

// CreateDonation opens a pending donation. Guests may donate; an
// authenticated user becomes the donor of record.
func (h *DonationHandler) CreateDonation(c echo.Context) error {
	var req createDonationRequest
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
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	var donorID *uuid.UUID
	if user, ok := auth.GetAuthUser(c.Request().Context()); ok {
		donorID = &user.UserID
	}

	donation, err := h.donations.CreateDonation(c.Request().Context(), usecase.CreateDonationInput{
		CampaignID:    campaignID,
		DonorID:       donorID,
		Amount:        amount,
		Currency:      req.Currency,
		PaymentMethod: model.PaymentMethodCreditCard,
		IsAnonymous:   req.IsAnonymous,
		DonorName:     req.DonorName,
		Message:       req.Message,
	})
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, donation)
}

func (h *DonationHandler) GetDonation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	donation, err := h.donations.GetDonation(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, donation)
}

type refundRequestBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RequestRefund lets the donor open a refund request on their own
// completed donation.
func (h *DonationHandler) RequestRefund(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	var req refundRequestBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	donation, err := h.donations.RequestRefund(c.Request().Context(), id, user.UserID, req.Reason)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, donation)
}

// ListMyDonations returns the authenticated donor's history.
func (h *DonationHandler) ListMyDonations(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	donations, err := h.donations.ListDonorDonations(c.Request().Context(), user.UserID, limit, offset)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"donations": donations})
}

// ListCampaignDonors returns the public donor list of a campaign.
func (h *DonationHandler) ListCampaignDonors(c echo.Context) error {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid campaign id")
	}

	limit, offset := pagination(c)
	donations, err := h.donations.ListCampaignDonors(c.Request().Context(), campaignID, limit, offset)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	type donor struct {
		DisplayName string `json:"display_name"`
		Amount      string `json:"amount"`
		Message     string `json:"message,omitempty"`
		DonatedAt   string `json:"donated_at"`
	}
	donors := make([]donor, 0, len(donations))
	for _, d := range donations {
		donors = append(donors, donor{
			DisplayName: d.DonorDisplayName,
			Amount:      d.Amount.StringFixed(2),
			Message:     d.DonorMessage,
			DonatedAt:   d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"donors": donors})
}

func pagination(c echo.Context) (limit, offset int) {
	limit = 20
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
