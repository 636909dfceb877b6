package model

import (
	"time"

	"github.com/google/uuid"
)

// DonationReceipt is issued exactly once per completed donation, numbered
// RCPT-YYYY-NNNNNN with a per-year sequence.
type DonationReceipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DonationID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"donation_id"`
	ReceiptNumber string    `gorm:"size:20;uniqueIndex;not null" json:"receipt_number"`
	IssuedAt      time.Time `gorm:"default:now()" json:"issued_at"`
	CreatedAt     time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (DonationReceipt) TableName() string {
	return "donation_receipts"
}
