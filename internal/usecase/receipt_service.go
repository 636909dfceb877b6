package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/refcode"
)

// ReceiptService issues yearly-sequenced donation receipts.
type ReceiptService struct {
	receiptRepo repository.ReceiptRepository
	logger      *zap.Logger
}

// NewReceiptService creates a new receipt service instance
func NewReceiptService(receiptRepo repository.ReceiptRepository, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{receiptRepo: receiptRepo, logger: logger}
}

// IssueReceipt creates the receipt for a completed donation. It is
// idempotent: a donation that already has a receipt gets the existing one
// back.
func (s *ReceiptService) IssueReceipt(ctx context.Context, donationID uuid.UUID) (*model.DonationReceipt, error) {
	existing, err := s.receiptRepo.GetByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing receipt: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	seq, err := s.receiptRepo.NextSequenceForYear(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate receipt sequence: %w", err)
	}

	receipt := &model.DonationReceipt{
		DonationID:    donationID,
		ReceiptNumber: refcode.ReceiptNumber(now.Year(), seq),
		IssuedAt:      now,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		// A concurrent issuer may have won the unique index on donation_id;
		// return whatever is stored rather than surface the conflict.
		stored, getErr := s.receiptRepo.GetByDonationID(ctx, donationID)
		if getErr == nil && stored != nil {
			return stored, nil
		}
		return nil, err
	}

	s.logger.Info("Receipt issued",
		zap.String("donation_id", donationID.String()),
		zap.String("receipt_number", receipt.ReceiptNumber))
	return receipt, nil
}

// GetByDonation returns the receipt for a donation, nil when none issued.
func (s *ReceiptService) GetByDonation(ctx context.Context, donationID uuid.UUID) (*model.DonationReceipt, error) {
	return s.receiptRepo.GetByDonationID(ctx, donationID)
}
