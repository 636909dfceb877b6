package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	apperrors "github.com/seffafbagis/donation-platform/pkg/errors"
)

type RecurringHandler struct {
	recurring *usecase.RecurringService
	logger    *zap.Logger
}

func NewRecurringHandler(recurring *usecase.RecurringService, logger *zap.Logger) *RecurringHandler {
	return &RecurringHandler{recurring: recurring, logger: logger}
}

type createRecurringRequest struct {
	CampaignID     string `json:"campaign_id" validate:"omitempty,uuid"`
	OrganizationID string `json:"organization_id" validate:"omitempty,uuid"`
	Amount         string `json:"amount" validate:"required"`
	Frequency      string `json:"frequency" validate:"required,oneof=weekly monthly yearly"`
	CardToken      string `json:"card_token" validate:"omitempty,max=200"`
}

func (h *RecurringHandler) Create(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req createRecurringRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	input := usecase.CreateRecurringInput{
		DonorID:   user.UserID,
		Amount:    amount,
		Frequency: model.Frequency(req.Frequency),
		CardToken: req.CardToken,
	}
	if req.CampaignID != "" {
		id, err := uuid.Parse(req.CampaignID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid campaign id")
		}
		input.CampaignID = &id
	}
	if req.OrganizationID != "" {
		id, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
		}
		input.OrganizationID = &id
	}

	rd, err := h.recurring.Create(c.Request().Context(), input)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rd)
}

func (h *RecurringHandler) Get(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recurring donation id")
	}

	rd, err := h.recurring.Get(c.Request().Context(), id, user.UserID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, rd)
}

type updateRecurringRequest struct {
	Amount    *string `json:"amount"`
	Frequency *string `json:"frequency" validate:"omitempty,oneof=weekly monthly yearly"`
}

func (h *RecurringHandler) Update(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recurring donation id")
	}

	var req updateRecurringRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var input usecase.UpdateRecurringInput
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
		}
		input.Amount = &amount
	}
	if req.Frequency != nil {
		freq := model.Frequency(*req.Frequency)
		input.Frequency = &freq
	}

	rd, err := h.recurring.Update(c.Request().Context(), id, user.UserID, input)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, rd)
}

func (h *RecurringHandler) Pause(c echo.Context) error {
	return h.transition(c, h.recurring.Pause)
}

func (h *RecurringHandler) Resume(c echo.Context) error {
	return h.transition(c, h.recurring.Resume)
}

func (h *RecurringHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.recurring.Cancel)
}

func (h *RecurringHandler) transition(c echo.Context, op func(ctx context.Context, id, donorID uuid.UUID) error) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recurring donation id")
	}

	if err := op(c.Request().Context(), id, user.UserID); err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine returns the donor's subscriptions and their combined monthly
// commitment.
func (h *RecurringHandler) ListMine(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	summary, err := h.recurring.ListByDonor(c.Request().Context(), user.UserID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}
