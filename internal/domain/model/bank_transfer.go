package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceStatus is monotonic: pending is the only state from which
// matched, expired or cancelled is reachable, and those three are terminal.
type ReferenceStatus string

const (
	ReferenceStatusPending   ReferenceStatus = "pending"
	ReferenceStatusMatched   ReferenceStatus = "matched"
	ReferenceStatusExpired   ReferenceStatus = "expired"
	ReferenceStatusCancelled ReferenceStatus = "cancelled"
)

func (s *ReferenceStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = ReferenceStatus(v)
	case []byte:
		*s = ReferenceStatus(v)
	default:
		*s = ReferenceStatusPending
	}
	return nil
}

func (s ReferenceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ReferenceTTL is how long a reference code stays matchable.
const ReferenceTTL = 7 * 24 * time.Hour

// BankAccountSnapshot captures the issuing bank account's display fields at
// reference-issuance time. It is stored by value so later bank-account
// edits cannot retroactively alter a code already handed to a donor.
type BankAccountSnapshot struct {
	BankName      string `gorm:"size:100" json:"bank_name"`
	BranchName    string `gorm:"size:100" json:"branch_name"`
	AccountHolder string `gorm:"size:150" json:"account_holder"`
	IBAN          string `gorm:"size:34" json:"iban"`
}

// BankTransferReference is a time-bound code a donor writes in a manual
// transfer description so the incoming payment can be matched back to a
// donation intent.
type BankTransferReference struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ReferenceCode     string              `gorm:"size:30;uniqueIndex;not null" json:"reference_code"`
	CampaignID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"campaign_id"`
	OrganizationID    uuid.UUID           `gorm:"type:uuid;not null" json:"organization_id"`
	BankAccountID     uuid.UUID           `gorm:"type:uuid;not null" json:"bank_account_id"`
	BankAccount       BankAccountSnapshot `gorm:"embedded;embeddedPrefix:bank_" json:"bank_account"`
	DonorID           *uuid.UUID          `gorm:"type:uuid;index" json:"donor_id,omitempty"`
	ExpectedAmount    decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"expected_amount"`
	SenderName        string              `gorm:"size:150" json:"sender_name,omitempty"`
	SenderIBAN        string              `gorm:"size:34" json:"sender_iban,omitempty"`
	Status            ReferenceStatus     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	MatchedDonationID *uuid.UUID          `gorm:"type:uuid" json:"matched_donation_id,omitempty"`
	MatchedAt         *time.Time          `json:"matched_at,omitempty"`
	ExpiresAt         time.Time           `gorm:"not null;index" json:"expires_at"`
	CreatedAt         time.Time           `gorm:"default:now()" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (BankTransferReference) TableName() string {
	return "bank_transfer_references"
}
