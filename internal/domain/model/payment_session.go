package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the cart lifecycle state.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusExpired   SessionStatus = "EXPIRED"
)

func (s *SessionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SessionStatus(v)
	case []byte:
		*s = SessionStatus(v)
	default:
		*s = SessionStatusPending
	}
	return nil
}

func (s SessionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// SessionTTL is how long a pending cart survives before the cleanup sweep
// expires it.
const SessionTTL = 24 * time.Hour

// PaymentSession groups multiple pending donations under a single checkout.
// TotalAmount is derived: it always equals the sum of the amounts of the
// currently linked, still-pending donations.
type PaymentSession struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Status      SessionStatus   `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_amount"`
	Currency    string          `gorm:"size:3;default:'TRY'" json:"currency"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expires_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"default:now()" json:"updated_at"`

	// Relations
	Donations []Donation `gorm:"foreignKey:PaymentSessionID" json:"donations,omitempty"`
}

// TableName specifies the table name for GORM
func (PaymentSession) TableName() string {
	return "payment_sessions"
}
