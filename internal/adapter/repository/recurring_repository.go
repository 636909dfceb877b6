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

type recurringRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecurringRepository creates a new recurring donation repository
func NewRecurringRepository(db *gorm.DB, logger *zap.Logger) repository.RecurringRepository {
	return &recurringRepository{db: db, logger: logger}
}

func (r *recurringRepository) Create(ctx context.Context, recurring *model.RecurringDonation) error {
	if err := r.db.WithContext(ctx).Create(recurring).Error; err != nil {
		r.logger.Error("Failed to create recurring donation",
			zap.String("donor_id", recurring.DonorID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create recurring donation: %w", err)
	}
	return nil
}

func (r *recurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringDonation, error) {
	var recurring model.RecurringDonation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&recurring).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get recurring donation", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get recurring donation: %w", err)
	}
	return &recurring, nil
}

func (r *recurringRepository) Update(ctx context.Context, recurring *model.RecurringDonation) error {
	if err := r.db.WithContext(ctx).Save(recurring).Error; err != nil {
		r.logger.Error("Failed to update recurring donation",
			zap.String("id", recurring.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update recurring donation: %w", err)
	}
	return nil
}

func (r *recurringRepository) ListDue(ctx context.Context, date time.Time) ([]model.RecurringDonation, error) {
	var due []model.RecurringDonation
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_payment_date <= ?", model.RecurringStatusActive, date).
		Order("next_payment_date ASC").
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due recurring donations: %w", err)
	}
	return due, nil
}

func (r *recurringRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.RecurringDonation, error) {
	var recurrings []model.RecurringDonation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&recurrings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donor recurring donations: %w", err)
	}
	return recurrings, nil
}

// RecordSuccess resets the failure streak alongside the totals in one update.
func (r *recurringRepository) RecordSuccess(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paidAt time.Time, nextDate time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.RecurringDonation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_donated":      gorm.Expr("total_donated + ?", amount),
			"payment_count":      gorm.Expr("payment_count + 1"),
			"failure_count":      0,
			"last_error_message": "",
			"last_payment_date":  paidAt,
			"next_payment_date":  nextDate,
			"updated_at":         time.Now(),
		}).Error
	if err != nil {
		r.logger.Error("Failed to record recurring success", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to record recurring success: %w", err)
	}
	return nil
}

// IncrementFailure bumps the streak and returns the new count so the caller
// can decide whether the protective pause threshold was hit.
func (r *recurringRepository) IncrementFailure(ctx context.Context, id uuid.UUID, errorMessage string) (int, error) {
	var failureCount int
	err := r.db.WithContext(ctx).Raw(
		`UPDATE recurring_donations
		 SET failure_count = failure_count + 1,
		     last_error_message = ?,
		     updated_at = NOW()
		 WHERE id = ?
		 RETURNING failure_count`,
		errorMessage, id,
	).Scan(&failureCount).Error
	if err != nil {
		r.logger.Error("Failed to increment recurring failure", zap.String("id", id.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to increment recurring failure: %w", err)
	}
	return failureCount, nil
}

func (r *recurringRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to model.RecurringStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RecurringDonation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to update recurring status",
			zap.String("id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to update recurring status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *recurringRepository) SetNextPaymentDate(ctx context.Context, id uuid.UUID, nextDate time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.RecurringDonation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_payment_date": nextDate,
			"updated_at":        time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set next payment date: %w", err)
	}
	return nil
}

// FillCardToken backfills token-less active subscriptions of the donor after
// a successful card payment stored a reusable token.
func (r *recurringRepository) FillCardToken(ctx context.Context, donorID uuid.UUID, token string) error {
	err := r.db.WithContext(ctx).Model(&model.RecurringDonation{}).
		Where("donor_id = ? AND status = ? AND (card_token IS NULL OR card_token = '')",
			donorID, model.RecurringStatusActive).
		Updates(map[string]interface{}{
			"card_token": token,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		r.logger.Error("Failed to fill card token", zap.String("donor_id", donorID.String()), zap.Error(err))
		return fmt.Errorf("failed to fill card token: %w", err)
	}
	return nil
}
