package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
)

// DefaultMinDonationAmount applies when the platform setting is unset or
// unparsable.
var DefaultMinDonationAmount = decimal.NewFromInt(10)

// SettingService reads platform tunables with sane fallbacks.
type SettingService struct {
	settingRepo repository.SettingRepository
	logger      *zap.Logger
}

// NewSettingService creates a new setting service instance
func NewSettingService(settingRepo repository.SettingRepository, logger *zap.Logger) *SettingService {
	return &SettingService{settingRepo: settingRepo, logger: logger}
}

// MinDonationAmount returns the platform minimum donation amount. Lookup
// failures fall back to the default so donations are never blocked by a
// settings outage.
func (s *SettingService) MinDonationAmount(ctx context.Context) decimal.Decimal {
	setting, err := s.settingRepo.GetByKey(ctx, model.SettingMinDonationAmount)
	if err != nil {
		s.logger.Warn("Failed to read min donation amount setting", zap.Error(err))
		return DefaultMinDonationAmount
	}
	if setting == nil {
		return DefaultMinDonationAmount
	}

	value, err := decimal.NewFromString(setting.SettingValue)
	if err != nil {
		s.logger.Warn("Invalid min donation amount setting",
			zap.String("value", setting.SettingValue),
			zap.Error(err))
		return DefaultMinDonationAmount
	}
	return value
}
