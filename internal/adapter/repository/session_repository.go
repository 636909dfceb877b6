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

type sessionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new payment session repository
func NewSessionRepository(db *gorm.DB, logger *zap.Logger) repository.SessionRepository {
	return &sessionRepository{db: db, logger: logger}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.PaymentSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.logger.Error("Failed to create payment session",
			zap.String("user_id", session.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create payment session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentSession, error) {
	var session model.PaymentSession
	err := r.db.WithContext(ctx).
		Preload("Donations").
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment session", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) GetPendingByUser(ctx context.Context, userID uuid.UUID) (*model.PaymentSession, error) {
	var session model.PaymentSession
	err := r.db.WithContext(ctx).
		Preload("Donations").
		Where("user_id = ? AND status = ?", userID, model.SessionStatusPending).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get pending session", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get pending session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	err := r.db.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update session total: %w", err)
	}
	return nil
}

func (r *sessionRepository) CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("id = ? AND status = ?", id, model.SessionStatusPending).
		Updates(map[string]interface{}{
			"status":       model.SessionStatusCompleted,
			"completed_at": at,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to complete session", zap.String("id", id.String()), zap.Error(res.Error))
		return false, fmt.Errorf("failed to complete session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PaymentSession{}).
		Where("id = ? AND status = ?", id, model.SessionStatusPending).
		Updates(map[string]interface{}{
			"status":     model.SessionStatusExpired,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to expire session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.PaymentSession, error) {
	var sessions []model.PaymentSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.SessionStatusPending, cutoff).
		Order("expires_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	return sessions, nil
}
