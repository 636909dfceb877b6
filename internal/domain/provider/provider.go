// Package provider defines the payment-gateway port. The wire protocol is
// the adapter's concern; the engine sees charge/3DS/refund results only.
package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Gateway is the interface every payment provider adapter implements.
type Gateway interface {
	// Name returns the provider name recorded on transactions.
	Name() string

	// Charge performs a direct charge with a stored card token (recurring
	// cycles). It returns a result for both gateway-accepted and
	// gateway-declined charges; err is reserved for transport failures.
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	// Initialize3DS starts a 3-D Secure flow and returns the challenge
	// HTML the client must render.
	Initialize3DS(ctx context.Context, req *ChargeRequest) (*ThreeDSInitResult, error)

	// Complete3DS finishes a 3DS flow after the bank callback.
	Complete3DS(ctx context.Context, providerPaymentID, conversationID string) (*ChargeResult, error)

	// Refund returns money against a previously successful charge.
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
}

// Card is the card detail set forwarded to the gateway. Never persisted.
type Card struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpireMonth string `json:"expire_month"`
	ExpireYear  string `json:"expire_year"`
	CVC         string `json:"cvc"`
	// RegisterCard asks the gateway to tokenize the card for future
	// recurring charges.
	RegisterCard bool `json:"register_card"`
}

// ChargeRequest is a provider-agnostic charge or 3DS-init request.
// ConversationID is the donation id and correlates the eventual callback.
type ChargeRequest struct {
	ConversationID string
	Amount         decimal.Decimal
	Currency       string
	Card           *Card
	CardToken      string
	CardUserKey    string
	BuyerID        string
	BuyerEmail     string
	CallbackURL    string
}

// ChargeResult mirrors the gateway's success/failure vocabulary.
type ChargeResult struct {
	Success               bool
	ProviderPaymentID     string
	ProviderTransactionID string
	PaidAmount            decimal.Decimal
	FeeAmount             decimal.Decimal
	CardLastFour          string
	// CardToken is set when the gateway tokenized the card.
	CardToken   string
	CardUserKey string
	ErrorCode   string
	ErrorMsg    string
	Raw         map[string]interface{}
}

// ThreeDSInitResult carries the challenge the client renders.
type ThreeDSInitResult struct {
	HTMLContent       string
	ProviderPaymentID string
}

type RefundRequest struct {
	ProviderTransactionID string
	Amount                decimal.Decimal
	Currency              string
}

type RefundResult struct {
	Success        bool
	RefundedAmount decimal.Decimal
	ErrorCode      string
	ErrorMsg       string
}

// Error is a gateway-level failure (transport, auth, malformed response).
// Declines are not Errors; they come back as unsuccessful ChargeResults.
type Error struct {
	Code    string
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
