// Package event defines the payload schemas the engine emits. Consumers
// (notification, email, audit) subscribe to these channels; the ledger
// never calls them directly.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Channel names.
const (
	ChannelDonationCreated         = "donation.created"
	ChannelDonationCompleted       = "donation.completed"
	ChannelDonationFailed          = "donation.failed"
	ChannelDonationRefundRequested = "donation.refund_requested"
	ChannelBankTransferExpired     = "bank_transfer.expired"
	ChannelRecurringPaused         = "recurring.paused"
)

// Publisher is the port the engine emits through. Emission failures are
// logged and never fail the owning transaction.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

type DonationCreated struct {
	DonationID  uuid.UUID       `json:"donation_id"`
	CampaignID  uuid.UUID       `json:"campaign_id"`
	DonorID     *uuid.UUID      `json:"donor_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	IsAnonymous bool            `json:"is_anonymous"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type DonationCompleted struct {
	DonationID     uuid.UUID       `json:"donation_id"`
	CampaignID     uuid.UUID       `json:"campaign_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	DonorID        *uuid.UUID      `json:"donor_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionID  *uuid.UUID      `json:"transaction_id,omitempty"`
	ReceiptNumber  string          `json:"receipt_number"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type DonationFailed struct {
	DonationID uuid.UUID  `json:"donation_id"`
	CampaignID uuid.UUID  `json:"campaign_id"`
	DonorID    *uuid.UUID `json:"donor_id,omitempty"`
	Reason     string     `json:"reason"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type DonationRefundRequested struct {
	DonationID uuid.UUID       `json:"donation_id"`
	CampaignID uuid.UUID       `json:"campaign_id"`
	DonorID    uuid.UUID       `json:"donor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type BankTransferExpired struct {
	ReferenceID   uuid.UUID  `json:"reference_id"`
	ReferenceCode string     `json:"reference_code"`
	DonorID       *uuid.UUID `json:"donor_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

type RecurringPaused struct {
	RecurringDonationID uuid.UUID `json:"recurring_donation_id"`
	DonorID             uuid.UUID `json:"donor_id"`
	FailureCount        int       `json:"failure_count"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// NopPublisher discards events; used in tests and when Redis is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	return nil
}
