package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// CampaignRepository is the engine's view of the campaign store: status
// reads plus the completion counters.
type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)

	// IncrementDonationStats atomically adds to collected_amount and bumps
	// donor_count. Called exactly once per completed donation, from the
	// winning completion transition only.
	IncrementDonationStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// UserRepository resolves donor identity for display names and ownership
// checks.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// SettingRepository reads platform tunables.
type SettingRepository interface {
	// GetByKey returns (nil, nil) when the key is unset.
	GetByKey(ctx context.Context, key string) (*model.SystemSetting, error)
}
