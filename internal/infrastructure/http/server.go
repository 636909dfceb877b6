package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/seffafbagis/donation-platform/internal/adapter/handler/http"
	"github.com/seffafbagis/donation-platform/internal/config"
	"github.com/seffafbagis/donation-platform/internal/middleware/auth"
	"github.com/seffafbagis/donation-platform/internal/usecase"
)

// Services bundles the usecase layer the routes are built on.
type Services struct {
	Donations    *usecase.DonationService
	Transfers    *usecase.BankTransferService
	Recurring    *usecase.RecurringService
	Sessions     *usecase.SessionService
	Payments     *usecase.PaymentService
	Transactions *usecase.TransactionService
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services *Services
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(cfg *config.Config, logger *zap.Logger, services *Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		services: services,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	donationHandler := handlers.NewDonationHandler(s.services.Donations, s.logger)
	transferHandler := handlers.NewBankTransferHandler(s.services.Transfers, s.logger)
	recurringHandler := handlers.NewRecurringHandler(s.services.Recurring, s.logger)
	sessionHandler := handlers.NewSessionHandler(s.services.Sessions, s.logger)
	paymentHandler := handlers.NewPaymentHandler(s.services.Payments, s.services.Transactions, s.logger)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/api/v1/payments/3ds/callback",
			"/api/v1/campaigns",
		},
	}

	v1 := s.echo.Group("/api/v1")

	// Public routes. The 3DS callback is hit by the gateway, the donor list
	// and donation creation by guests.
	v1.POST("/payments/3ds/callback", paymentHandler.Callback3DS)
	v1.GET("/campaigns/:id/donors", donationHandler.ListCampaignDonors)

	// Donation creation allows guests; the JWT middleware on the protected
	// group would reject them, so it gets an optional variant here.
	v1.POST("/donations", donationHandler.CreateDonation, optionalAuth(jwtConfig))
	v1.POST("/bank-transfers", transferHandler.CreateReference, optionalAuth(jwtConfig))
	v1.GET("/bank-transfers/:code", transferHandler.GetReference)

	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	protected.GET("/donations/:id", donationHandler.GetDonation)
	protected.POST("/donations/:id/refund-request", donationHandler.RequestRefund)
	protected.GET("/donations/:id/transaction", paymentHandler.GetDonationTransaction)
	protected.GET("/me/donations", donationHandler.ListMyDonations)

	protected.DELETE("/bank-transfers/:code", transferHandler.CancelReference)
	protected.GET("/me/bank-transfers", transferHandler.ListMyReferences)

	recurring := protected.Group("/recurring-donations")
	recurring.POST("", recurringHandler.Create)
	recurring.GET("/:id", recurringHandler.Get)
	recurring.PATCH("/:id", recurringHandler.Update)
	recurring.POST("/:id/pause", recurringHandler.Pause)
	recurring.POST("/:id/resume", recurringHandler.Resume)
	recurring.DELETE("/:id", recurringHandler.Cancel)
	protected.GET("/me/recurring-donations", recurringHandler.ListMine)

	cart := protected.Group("/cart")
	cart.GET("", sessionHandler.GetCart)
	cart.POST("/donations", sessionHandler.AddDonation)
	cart.DELETE("/:id/donations/:donationId", sessionHandler.RemoveDonation)

	protected.POST("/payments/3ds/initiate", paymentHandler.Initiate3DS)

	admin := protected.Group("/admin", auth.RequireAdmin)
	admin.POST("/bank-transfers/match", transferHandler.MatchTransfer)
	admin.POST("/donations/:id/refund", paymentHandler.ExecuteRefund)
}

// optionalAuth authenticates when a bearer token is present and lets the
// request through anonymously when it is not.
func optionalAuth(cfg auth.JWTConfig) echo.MiddlewareFunc {
	jwtMiddleware := auth.JWTMiddleware(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return jwtMiddleware(next)(c)
		}
	}
}
