package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/errors"
)

// TransactionService exposes the gateway audit trail for support and admin
// tooling. Records are written by the payment orchestrator only.
type TransactionService struct {
	transactionRepo repository.TransactionRepository
	donationRepo    repository.DonationRepository
	logger          *zap.Logger
}

// NewTransactionService creates a new transaction service instance
func NewTransactionService(
	transactionRepo repository.TransactionRepository,
	donationRepo repository.DonationRepository,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		donationRepo:    donationRepo,
		logger:          logger,
	}
}

// Get returns a transaction by id.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.NotFound("transaction not found")
	}
	return tx, nil
}

// GetByDonation returns the latest transaction of a donation.
func (s *TransactionService) GetByDonation(ctx context.Context, donationID uuid.UUID) (*model.Transaction, error) {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}

	tx, err := s.transactionRepo.GetByDonationID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.NotFound("donation has no transaction")
	}
	return tx, nil
}
