package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus mirrors the gateway's success/failure vocabulary.
type TransactionStatus string

const (
	TransactionStatusSuccess  TransactionStatus = "success"
	TransactionStatusFailure  TransactionStatus = "failure"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

func (s *TransactionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TransactionStatus(v)
	case []byte:
		*s = TransactionStatus(v)
	default:
		*s = TransactionStatusFailure
	}
	return nil
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Transaction is the immutable audit record of a single gateway
// interaction. One is created per charge attempt or 3DS callback, success
// or failure, and never speculatively.
type Transaction struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DonationID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"donation_id"`
	PaymentProvider       string            `gorm:"size:30;not null" json:"payment_provider"`
	ProviderPaymentID     string            `gorm:"size:100;index" json:"provider_payment_id"`
	ProviderTransactionID string            `gorm:"size:100" json:"provider_transaction_id"`
	Amount                decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	FeeAmount             decimal.Decimal   `gorm:"type:decimal(15,2);default:0" json:"fee_amount"`
	NetAmount             decimal.Decimal   `gorm:"type:decimal(15,2)" json:"net_amount"`
	Currency              string            `gorm:"size:3;default:'TRY'" json:"currency"`
	Status                TransactionStatus `gorm:"size:20;not null" json:"status"`
	Is3DSecure            bool              `gorm:"default:false" json:"is_3d_secure"`
	ErrorCode             string            `gorm:"size:100" json:"error_code,omitempty"`
	ErrorMessage          string            `gorm:"size:500" json:"error_message,omitempty"`
	CardLastFour          string            `gorm:"size:4" json:"card_last_four,omitempty"`
	RefundedAmount        *decimal.Decimal  `gorm:"type:decimal(15,2)" json:"refunded_amount,omitempty"`
	RefundedAt            *time.Time        `json:"refunded_at,omitempty"`
	RawResponse           JSONB             `gorm:"type:jsonb" json:"raw_response,omitempty"`
	ProcessedAt           time.Time         `gorm:"default:now()" json:"processed_at"`
	CreatedAt             time.Time         `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}
