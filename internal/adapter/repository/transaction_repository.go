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

type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) repository.TransactionRepository {
	return &transactionRepository{db: db, logger: logger}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		r.logger.Error("Failed to create transaction",
			zap.String("donation_id", tx.DonationID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Where("donation_id = ?", donationID).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by donation",
			zap.String("donation_id", donationID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction by donation: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) MarkRefunded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TransactionStatusSuccess).
		Updates(map[string]interface{}{
			"status":          model.TransactionStatusRefunded,
			"refunded_amount": amount,
			"refunded_at":     at,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to mark transaction refunded", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark transaction refunded: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

type receiptRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewReceiptRepository creates a new donation receipt repository
func NewReceiptRepository(db *gorm.DB, logger *zap.Logger) repository.ReceiptRepository {
	return &receiptRepository{db: db, logger: logger}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.DonationReceipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		r.logger.Error("Failed to create receipt",
			zap.String("donation_id", receipt.DonationID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.DonationReceipt, error) {
	var receipt model.DonationReceipt
	err := r.db.WithContext(ctx).Where("donation_id = ?", donationID).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (r *receiptRepository) NextSequenceForYear(ctx context.Context, year int) (int64, error) {
	var count int64
	prefix := fmt.Sprintf("RCPT-%d-%%", year)
	err := r.db.WithContext(ctx).Model(&model.DonationReceipt{}).
		Where("receipt_number LIKE ?", prefix).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count receipts for year: %w", err)
	}
	return count + 1, nil
}
