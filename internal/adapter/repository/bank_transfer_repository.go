package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
)

type bankTransferRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewBankTransferRepository creates a new bank transfer reference repository
func NewBankTransferRepository(db *gorm.DB, logger *zap.Logger) repository.BankTransferRepository {
	return &bankTransferRepository{db: db, logger: logger}
}

func (r *bankTransferRepository) Create(ctx context.Context, ref *model.BankTransferReference) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		r.logger.Error("Failed to create bank transfer reference",
			zap.String("reference_code", ref.ReferenceCode),
			zap.Error(err))
		return fmt.Errorf("failed to create bank transfer reference: %w", err)
	}
	return nil
}

func (r *bankTransferRepository) GetByCode(ctx context.Context, code string) (*model.BankTransferReference, error) {
	var ref model.BankTransferReference
	err := r.db.WithContext(ctx).Where("reference_code = ?", code).First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get bank transfer reference", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get bank transfer reference: %w", err)
	}
	return &ref, nil
}

func (r *bankTransferRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BankTransferReference{}).
		Where("reference_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reference code: %w", err)
	}
	return count > 0, nil
}

func (r *bankTransferRepository) MarkMatched(ctx context.Context, id uuid.UUID, donationID uuid.UUID, senderName, senderIBAN string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.BankTransferReference{}).
		Where("id = ? AND status = ?", id, model.ReferenceStatusPending).
		Updates(map[string]interface{}{
			"status":              model.ReferenceStatusMatched,
			"matched_donation_id": donationID,
			"sender_name":         senderName,
			"sender_iban":         senderIBAN,
			"matched_at":          time.Now(),
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to mark reference matched", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark reference matched: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *bankTransferRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.BankTransferReference{}).
		Where("id = ? AND status = ?", id, model.ReferenceStatusPending).
		Updates(map[string]interface{}{
			"status":     model.ReferenceStatusExpired,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark reference expired: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *bankTransferRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.BankTransferReference{}).
		Where("id = ? AND status = ?", id, model.ReferenceStatusPending).
		Updates(map[string]interface{}{
			"status":     model.ReferenceStatusCancelled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to cancel reference: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *bankTransferRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]model.BankTransferReference, error) {
	var refs []model.BankTransferReference
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.ReferenceStatusPending, now).
		Order("expires_at ASC").
		Find(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired references: %w", err)
	}
	return refs, nil
}

func (r *bankTransferRepository) ListPendingByDonor(ctx context.Context, donorID uuid.UUID) ([]model.BankTransferReference, error) {
	var refs []model.BankTransferReference
	err := r.db.WithContext(ctx).
		Where("donor_id = ? AND status = ?", donorID, model.ReferenceStatusPending).
		Order("created_at DESC").
		Find(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donor references: %w", err)
	}
	return refs, nil
}

type bankAccountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewBankAccountRepository creates a new organization bank account repository
func NewBankAccountRepository(db *gorm.DB, logger *zap.Logger) repository.BankAccountRepository {
	return &bankAccountRepository{db: db, logger: logger}
}

// FirstForOrganization prefers the primary active account and falls back to
// the oldest active one.
func (r *bankAccountRepository) FirstForOrganization(ctx context.Context, organizationID uuid.UUID) (*model.OrganizationBankAccount, error) {
	var account model.OrganizationBankAccount
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = true", organizationID).
		Order("is_primary DESC, created_at ASC").
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get organization bank account",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get organization bank account: %w", err)
	}
	return &account, nil
}
