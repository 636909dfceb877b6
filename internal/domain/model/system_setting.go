package model

import (
	"time"

	"github.com/google/uuid"
)

// SystemSetting is a keyed platform tunable, e.g. min_donation_amount.
type SystemSetting struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SettingKey   string    `gorm:"size:100;uniqueIndex;not null" json:"setting_key"`
	SettingValue string    `gorm:"size:500;not null" json:"setting_value"`
	ValueType    string    `gorm:"size:20;default:'string'" json:"value_type"`
	Description  string    `gorm:"size:255" json:"description,omitempty"`
	UpdatedAt    time.Time `gorm:"default:now()" json:"updated_at"`
}

// SettingMinDonationAmount is the minimum accepted donation amount key.
const SettingMinDonationAmount = "min_donation_amount"

// TableName specifies the table name for GORM
func (SystemSetting) TableName() string {
	return "system_settings"
}
