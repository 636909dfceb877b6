package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	apperrors "github.com/seffafbagis/donation-platform/pkg/errors"
)

type SessionHandler struct {
	sessions *usecase.SessionService
	logger   *zap.Logger
}

func NewSessionHandler(sessions *usecase.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// GetCart returns the user's open cart, creating one when none exists.
func (h *SessionHandler) GetCart(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	session, err := h.sessions.GetOrCreate(c.Request().Context(), user.UserID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, session)
}

type addDonationRequest struct {
	DonationID string `json:"donation_id" validate:"required,uuid"`
}

// AddDonation links a pending donation into the user's cart.
func (h *SessionHandler) AddDonation(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req addDonationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	donationID, err := uuid.Parse(req.DonationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	session, err := h.sessions.AddDonation(c.Request().Context(), user.UserID, donationID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, session)
}

// RemoveDonation unlinks a donation from the cart; the donation itself
// stays pending.
func (h *SessionHandler) RemoveDonation(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	donationID, err := uuid.Parse(c.Param("donationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid donation id")
	}

	session, err := h.sessions.RemoveDonation(c.Request().Context(), user.UserID, sessionID, donationID)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, session)
}
