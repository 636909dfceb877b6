package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DonationStatus is the lifecycle state of a donation. The only legal
// transitions are PENDING -> COMPLETED and PENDING -> FAILED.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusCompleted DonationStatus = "COMPLETED"
	DonationStatusFailed    DonationStatus = "FAILED"
)

// Scan implements sql.Scanner interface
func (s *DonationStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = DonationStatus(v)
	case []byte:
		*s = DonationStatus(v)
	default:
		*s = DonationStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s DonationStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// RefundStatus is the refund sub-state of a completed donation.
type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusProcessed RefundStatus = "processed"
)

func (s *RefundStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = RefundStatus(v)
	case []byte:
		*s = RefundStatus(v)
	default:
		*s = RefundStatusNone
	}
	return nil
}

func (s RefundStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentMethod is the settlement path of a donation.
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodRecurring    PaymentMethod = "RECURRING"
)

// AnonymousDonorName is shown when no donor identity is available.
const AnonymousDonorName = "Anonymous Donor"

// RefundWindow is how long after creation a completed donation stays
// refundable. The boundary is inclusive.
const RefundWindow = 14 * 24 * time.Hour

// Donation is the canonical donation record owned by the ledger. Rows are
// never deleted; only the ledger's complete/fail/refund operations mutate
// them after creation.
type Donation struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CampaignID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"campaign_id"`
	DonorID          *uuid.UUID      `gorm:"type:uuid;index" json:"donor_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency         string          `gorm:"size:3;default:'TRY'" json:"currency"`
	Status           DonationStatus  `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaymentMethod    PaymentMethod   `gorm:"size:20" json:"payment_method"`
	IsAnonymous      bool            `gorm:"default:false" json:"is_anonymous"`
	DonorDisplayName string          `gorm:"size:100" json:"donor_display_name"`
	DonorMessage     string          `gorm:"size:500" json:"donor_message,omitempty"`
	RefundStatus     RefundStatus    `gorm:"size:20;not null;default:'none'" json:"refund_status"`
	RefundReason     string          `gorm:"size:500" json:"refund_reason,omitempty"`
	RefundRequestedAt *time.Time     `json:"refund_requested_at,omitempty"`
	TransactionID    *uuid.UUID      `gorm:"type:uuid" json:"transaction_id,omitempty"`
	PaymentSessionID *uuid.UUID      `gorm:"type:uuid;index" json:"payment_session_id,omitempty"`
	CreatedAt        time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Donation) TableName() string {
	return "donations"
}
