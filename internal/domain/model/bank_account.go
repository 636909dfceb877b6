package model

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationBankAccount is the live account record owned by the
// organization module. Bank-transfer references snapshot its display
// fields at issuance instead of joining against this row.
type OrganizationBankAccount struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	BankName       string    `gorm:"size:100;not null" json:"bank_name"`
	BranchName     string    `gorm:"size:100" json:"branch_name"`
	AccountHolder  string    `gorm:"size:150;not null" json:"account_holder"`
	IBAN           string    `gorm:"size:34;not null" json:"iban"`
	Currency       string    `gorm:"size:3;default:'TRY'" json:"currency"`
	IsPrimary      bool      `gorm:"default:false" json:"is_primary"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"default:now()" json:"created_at"`
}

// Snapshot captures the display fields by value.
func (a *OrganizationBankAccount) Snapshot() BankAccountSnapshot {
	return BankAccountSnapshot{
		BankName:      a.BankName,
		BranchName:    a.BranchName,
		AccountHolder: a.AccountHolder,
		IBAN:          a.IBAN,
	}
}

// TableName specifies the table name for GORM
func (OrganizationBankAccount) TableName() string {
	return "organization_bank_accounts"
}
