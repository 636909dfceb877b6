package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringStatus: active and paused flip back and forth (donor action or
// the three-failure protective pause); cancelled is terminal.
type RecurringStatus string

const (
	RecurringStatusActive    RecurringStatus = "active"
	RecurringStatusPaused    RecurringStatus = "paused"
	RecurringStatusCancelled RecurringStatus = "cancelled"
)

func (s *RecurringStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = RecurringStatus(v)
	case []byte:
		*s = RecurringStatus(v)
	default:
		*s = RecurringStatusPaused
	}
	return nil
}

func (s RecurringStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Frequency is the billing cadence of a recurring donation.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f *Frequency) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*f = Frequency(v)
	case []byte:
		*f = Frequency(v)
	default:
		*f = FrequencyMonthly
	}
	return nil
}

func (f Frequency) Value() (driver.Value, error) {
	return string(f), nil
}

// MaxConsecutiveFailures is the failure streak that forces a protective pause.
const MaxConsecutiveFailures = 3

// RecurringDonation is a donor-authorized subscription that produces a new
// donation each billing cycle. Exactly one of CampaignID/OrganizationID is
// the target; a campaign target also records the owning organization.
type RecurringDonation struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DonorID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"donor_id"`
	CampaignID       *uuid.UUID      `gorm:"type:uuid;index" json:"campaign_id,omitempty"`
	OrganizationID   *uuid.UUID      `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency         string          `gorm:"size:3;default:'TRY'" json:"currency"`
	Frequency        Frequency       `gorm:"size:10;not null" json:"frequency"`
	NextPaymentDate  time.Time       `gorm:"type:date;not null;index" json:"next_payment_date"`
	LastPaymentDate  *time.Time      `gorm:"type:date" json:"last_payment_date,omitempty"`
	TotalDonated     decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_donated"`
	PaymentCount     int             `gorm:"default:0" json:"payment_count"`
	FailureCount     int             `gorm:"default:0" json:"failure_count"`
	Status           RecurringStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	CardToken        string          `gorm:"size:200" json:"-"`
	LastErrorMessage string          `gorm:"size:500" json:"last_error_message,omitempty"`
	CreatedAt        time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (RecurringDonation) TableName() string {
	return "recurring_donations"
}
