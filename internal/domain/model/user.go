package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the donor directory projection this engine needs: identity,
// display name resolution and gateway card-token bookkeeping.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	CardUserKey string    `gorm:"size:100" json:"-"`
	CreatedAt   time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
