package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
)

type campaignRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB, logger *zap.Logger) repository.CampaignRepository {
	return &campaignRepository{db: db, logger: logger}
}

func (r *campaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get campaign", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (r *campaignRepository) IncrementDonationStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	err := r.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"collected_amount": gorm.Expr("collected_amount + ?", amount),
			"donor_count":      gorm.Expr("donor_count + 1"),
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		r.logger.Error("Failed to increment campaign stats", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to increment campaign stats: %w", err)
	}
	return nil
}

type userRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) repository.UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

type settingRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSettingRepository creates a new system setting repository
func NewSettingRepository(db *gorm.DB, logger *zap.Logger) repository.SettingRepository {
	return &settingRepository{db: db, logger: logger}
}

func (r *settingRepository) GetByKey(ctx context.Context, key string) (*model.SystemSetting, error) {
	var setting model.SystemSetting
	err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &setting, nil
}
