// Package stripe implements the payment gateway port on Stripe
// PaymentIntents.
package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/provider"
)

// Provider is the Stripe gateway adapter.
type Provider struct {
	logger *zap.Logger
}

// New creates a Stripe provider and sets the global API key.
func New(secretKey string, logger *zap.Logger) *Provider {
	stripego.Key = secretKey
	return &Provider{logger: logger}
}

// Name returns the provider name recorded on transactions.
func (p *Provider) Name() string {
	return "stripe"
}

// Charge confirms a PaymentIntent off-session with a stored payment method.
func (p *Provider) Charge(ctx context.Context, req *provider.ChargeRequest) (*provider.ChargeResult, error) {
	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(minorUnits(req.Amount)),
		Currency:      stripego.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripego.String(req.CardToken),
		Confirm:       stripego.Bool(true),
		OffSession:    stripego.Bool(true),
	}
	params.Context = ctx
	if req.CardUserKey != "" {
		params.Customer = stripego.String(req.CardUserKey)
	}
	params.AddMetadata("conversation_id", req.ConversationID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return p.resultFromError(err)
	}
	return p.resultFromIntent(intent), nil
}

// Initialize3DS creates a PaymentIntent and returns a redirect page for the
// bank challenge when Stripe requires one.
func (p *Provider) Initialize3DS(ctx context.Context, req *provider.ChargeRequest) (*provider.ThreeDSInitResult, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(minorUnits(req.Amount)),
		Currency: stripego.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("conversation_id", req.ConversationID)
	if req.BuyerEmail != "" {
		params.ReceiptEmail = stripego.String(req.BuyerEmail)
	}
	if req.Card != nil && req.Card.RegisterCard {
		params.SetupFutureUsage = stripego.String(string(stripego.PaymentIntentSetupFutureUsageOffSession))
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, p.providerError(err)
	}

	p.logger.Info("Stripe payment intent created",
		zap.String("conversation_id", req.ConversationID),
		zap.String("payment_intent_id", intent.ID))
	return &provider.ThreeDSInitResult{
		HTMLContent:       challengePage(intent.ClientSecret),
		ProviderPaymentID: intent.ID,
	}, nil
}

// Complete3DS fetches the intent after the client-side confirmation and
// maps its terminal status to a charge result.
func (p *Provider) Complete3DS(ctx context.Context, providerPaymentID, conversationID string) (*provider.ChargeResult, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(providerPaymentID, params)
	if err != nil {
		return nil, p.providerError(err)
	}
	return p.resultFromIntent(intent), nil
}

// Refund refunds the charge behind a PaymentIntent.
func (p *Provider) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.RefundResult, error) {
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(req.ProviderTransactionID),
		Amount:        stripego.Int64(minorUnits(req.Amount)),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		if stripeErr, ok := err.(*stripego.Error); ok {
			return &provider.RefundResult{
				Success:   false,
				ErrorCode: string(stripeErr.Code),
				ErrorMsg:  stripeErr.Msg,
			}, nil
		}
		return nil, p.providerError(err)
	}

	return &provider.RefundResult{
		Success:        ref.Status == stripego.RefundStatusSucceeded || ref.Status == stripego.RefundStatusPending,
		RefundedAmount: majorUnits(ref.Amount),
	}, nil
}

func (p *Provider) resultFromIntent(intent *stripego.PaymentIntent) *provider.ChargeResult {
	result := &provider.ChargeResult{
		Success:               intent.Status == stripego.PaymentIntentStatusSucceeded,
		ProviderPaymentID:     intent.ID,
		ProviderTransactionID: intent.ID,
		PaidAmount:            majorUnits(intent.Amount),
		Raw: map[string]interface{}{
			"payment_intent_id": intent.ID,
			"status":            string(intent.Status),
		},
	}
	if intent.Customer != nil {
		result.CardUserKey = intent.Customer.ID
	}
	if intent.PaymentMethod != nil {
		result.CardToken = intent.PaymentMethod.ID
		if intent.PaymentMethod.Card != nil {
			result.CardLastFour = intent.PaymentMethod.Card.Last4
		}
	}
	if !result.Success {
		result.ErrorCode = string(intent.Status)
		if intent.LastPaymentError != nil {
			result.ErrorCode = string(intent.LastPaymentError.Code)
			result.ErrorMsg = intent.LastPaymentError.Msg
		}
	}
	return result
}

// resultFromError maps a declined confirmation to an unsuccessful result;
// anything else is a gateway error.
func (p *Provider) resultFromError(err error) (*provider.ChargeResult, error) {
	stripeErr, ok := err.(*stripego.Error)
	if !ok {
		return nil, p.providerError(err)
	}
	if stripeErr.Type == stripego.ErrorTypeCard {
		return &provider.ChargeResult{
			Success:   false,
			ErrorCode: string(stripeErr.Code),
			ErrorMsg:  stripeErr.Msg,
		}, nil
	}
	return nil, &provider.Error{
		Code:    string(stripeErr.Code),
		Message: stripeErr.Msg,
		Details: stripeErr.Error(),
	}
}

func (p *Provider) providerError(err error) *provider.Error {
	return &provider.Error{
		Code:    "API_ERROR",
		Message: "Stripe API request failed",
		Details: err.Error(),
	}
}

// minorUnits converts a decimal major-unit amount to Stripe's integer
// minor units.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func majorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}

// challengePage wraps the client secret in a minimal page the frontend
// renders to run Stripe's confirmation flow.
func challengePage(clientSecret string) string {
	return fmt.Sprintf(
		`<div id="stripe-checkout" data-client-secret="%s"></div>`,
		clientSecret,
	)
}
