package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CampaignStatus: only ACTIVE campaigns accept donations. The rest of the
// campaign lifecycle is owned by an external collaborator.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

func (s *CampaignStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(v)
	default:
		*s = CampaignStatusPaused
	}
	return nil
}

func (s CampaignStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Campaign carries the fields this engine reads and the two counters it
// increments on completion. CRUD lives elsewhere.
type Campaign struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	Status          CampaignStatus  `gorm:"size:20;not null;index" json:"status"`
	TargetAmount    decimal.Decimal `gorm:"type:decimal(15,2)" json:"target_amount"`
	CollectedAmount decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"collected_amount"`
	DonorCount      int             `gorm:"default:0" json:"donor_count"`
	CreatedAt       time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Campaign) TableName() string {
	return "campaigns"
}
