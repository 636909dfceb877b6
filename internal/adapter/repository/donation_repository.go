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

type donationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB, logger *zap.Logger) repository.DonationRepository {
	return &donationRepository{db: db, logger: logger}
}

func (r *donationRepository) Create(ctx context.Context, donation *model.Donation) error {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		r.logger.Error("Failed to create donation",
			zap.String("campaign_id", donation.CampaignID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	var donation model.Donation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get donation", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return &donation, nil
}

// CompleteIfPending is the ledger's idempotency anchor: losing the guarded
// update means another caller already completed or failed the donation.
func (r *donationRepository) CompleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND status = ?", id, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"status":     model.DonationStatusCompleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to complete donation", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to complete donation: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) FailIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND status = ?", id, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"status":     model.DonationStatusFailed,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to fail donation", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to fail donation: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) MarkRefundRequested(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND status = ? AND refund_status = ?",
			id, model.DonationStatusCompleted, model.RefundStatusNone).
		Updates(map[string]interface{}{
			"refund_status":       model.RefundStatusRequested,
			"refund_reason":       reason,
			"refund_requested_at": at,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to mark refund requested", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark refund requested: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) MarkRefundProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND refund_status = ?", id, model.RefundStatusRequested).
		Updates(map[string]interface{}{
			"refund_status": model.RefundStatusProcessed,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to mark refund processed", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark refund processed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) LinkTransaction(ctx context.Context, id uuid.UUID, transactionID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ?", id).
		Update("transaction_id", transactionID).Error
	if err != nil {
		r.logger.Error("Failed to link transaction",
			zap.String("donation_id", id.String()),
			zap.String("transaction_id", transactionID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to link transaction: %w", err)
	}
	return nil
}

func (r *donationRepository) AttachToSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND status = ? AND payment_session_id IS NULL", id, model.DonationStatusPending).
		Update("payment_session_id", sessionID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to attach donation to session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) DetachFromSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("id = ? AND payment_session_id = ?", id, sessionID).
		Update("payment_session_id", nil)
	if res.Error != nil {
		return false, fmt.Errorf("failed to detach donation from session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) DetachAllFromSession(ctx context.Context, sessionID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&model.Donation{}).
		Where("payment_session_id = ?", sessionID).
		Update("payment_session_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach session donations: %w", err)
	}
	return nil
}

func (r *donationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Donation, error) {
	var donations []model.Donation
	err := r.db.WithContext(ctx).
		Where("payment_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list session donations: %w", err)
	}
	return donations, nil
}

func (r *donationRepository) SumPendingBySession(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Donation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_session_id = ? AND status = ?", sessionID, model.DonationStatusPending).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum session donations: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *donationRepository) ListByDonor(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	var donations []model.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donor donations: %w", err)
	}
	return donations, nil
}

func (r *donationRepository) ListPublicDonors(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	var donations []model.Donation
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ? AND is_anonymous = false",
			campaignID, model.DonationStatusCompleted).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign donors: %w", err)
	}
	return donations, nil
}
