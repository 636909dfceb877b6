package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/event"
	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/errors"
	"github.com/seffafbagis/donation-platform/pkg/refcode"
)

// codeGenerationAttempts bounds the uniqueness retry loop. With a 5-char
// alphabet-32 suffix a collision is already rare; hitting the bound means
// something is badly wrong upstream.
const codeGenerationAttempts = 5

// CreateReferenceInput opens a bank-transfer reference for a campaign.
type CreateReferenceInput struct {
	CampaignID     uuid.UUID
	DonorID        *uuid.UUID
	ExpectedAmount decimal.Decimal
}

// MatchTransferInput records an incoming wire against a reference code.
// ActualAmount is what arrived at the bank and may differ from the
// expected amount in either direction.
type MatchTransferInput struct {
	ReferenceCode string
	ActualAmount  decimal.Decimal
	SenderName    string
	SenderIBAN    string
}

// BankTransferService issues reference codes and reconciles incoming wires
// against them.
type BankTransferService struct {
	transferRepo repository.BankTransferRepository
	accountRepo  repository.BankAccountRepository
	campaignRepo repository.CampaignRepository
	donations    *DonationService
	publisher    event.Publisher
	logger       *zap.Logger
}

// NewBankTransferService creates a new bank transfer service instance
func NewBankTransferService(
	transferRepo repository.BankTransferRepository,
	accountRepo repository.BankAccountRepository,
	campaignRepo repository.CampaignRepository,
	donations *DonationService,
	publisher event.Publisher,
	logger *zap.Logger,
) *BankTransferService {
	return &BankTransferService{
		transferRepo: transferRepo,
		accountRepo:  accountRepo,
		campaignRepo: campaignRepo,
		donations:    donations,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateReference issues a new reference code for a manual transfer. The
// receiving account's display fields are snapshotted onto the reference so
// later account edits cannot change instructions already handed out.
func (s *BankTransferService) CreateReference(ctx context.Context, input CreateReferenceInput) (*model.BankTransferReference, error) {
	if input.ExpectedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Validation("expected amount must be positive")
	}

	campaign, err := s.campaignRepo.GetByID(ctx, input.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, errors.NotFound("campaign not found")
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, errors.Validation("campaign is not accepting donations")
	}

	account, err := s.accountRepo.FirstForOrganization(ctx, campaign.OrganizationID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.Conflict("organization has no active bank account")
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	ref := &model.BankTransferReference{
		ReferenceCode:  code,
		CampaignID:     campaign.ID,
		OrganizationID: campaign.OrganizationID,
		BankAccountID:  account.ID,
		BankAccount:    account.Snapshot(),
		DonorID:        input.DonorID,
		ExpectedAmount: input.ExpectedAmount,
		Status:         model.ReferenceStatusPending,
		ExpiresAt:      time.Now().Add(model.ReferenceTTL),
	}
	if err := s.transferRepo.Create(ctx, ref); err != nil {
		return nil, err
	}

	s.logger.Info("Bank transfer reference created",
		zap.String("reference_code", ref.ReferenceCode),
		zap.String("campaign_id", ref.CampaignID.String()))
	return ref, nil
}

func (s *BankTransferService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		code := refcode.Generate()
		exists, err := s.transferRepo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique reference code after %d attempts", codeGenerationAttempts)
}

// GetReference looks a reference up by code.
func (s *BankTransferService) GetReference(ctx context.Context, code string) (*model.BankTransferReference, error) {
	if !refcode.ValidateFormat(code) {
		return nil, errors.Validation("invalid reference code format")
	}
	ref, err := s.transferRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, errors.NotFound("reference code not found")
	}
	return ref, nil
}

// Instructions renders the transfer instructions a donor sees after
// receiving a reference code.
func (s *BankTransferService) Instructions(ref *model.BankTransferReference) string {
	return fmt.Sprintf(
		"Transfer %s %s to %s (IBAN: %s, %s %s). Write the reference code %s in the transfer description. The code is valid until %s.",
		ref.ExpectedAmount.StringFixed(2),
		"TRY",
		ref.BankAccount.AccountHolder,
		ref.BankAccount.IBAN,
		ref.BankAccount.BankName,
		ref.BankAccount.BranchName,
		ref.ReferenceCode,
		ref.ExpiresAt.Format("2006-01-02 15:04"),
	)
}

// MatchTransfer reconciles an incoming wire with a pending reference. The
// donation is recorded at the amount that actually arrived. A pending
// reference that is past expiry but not yet swept is expired here and the
// match rejected.
func (s *BankTransferService) MatchTransfer(ctx context.Context, input MatchTransferInput) (*model.Donation, error) {
	ref, err := s.GetReference(ctx, input.ReferenceCode)
	if err != nil {
		return nil, err
	}

	switch ref.Status {
	case model.ReferenceStatusPending:
	case model.ReferenceStatusMatched:
		return nil, errors.Conflict("reference already matched")
	default:
		return nil, errors.Conflict(fmt.Sprintf("reference is %s", ref.Status))
	}

	if time.Now().After(ref.ExpiresAt) {
		if _, err := s.transferRepo.MarkExpired(ctx, ref.ID); err != nil {
			s.logger.Warn("Failed to expire overdue reference during match",
				zap.String("reference_code", ref.ReferenceCode),
				zap.Error(err))
		}
		return nil, errors.Conflict("reference has expired")
	}

	if input.ActualAmount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Validation("transfer amount must be positive")
	}
	if !input.ActualAmount.Equal(ref.ExpectedAmount) {
		s.logger.Info("Transfer amount differs from expected",
			zap.String("reference_code", ref.ReferenceCode),
			zap.String("expected", ref.ExpectedAmount.String()),
			zap.String("actual", input.ActualAmount.String()))
	}

	donation, err := s.donations.create(ctx, CreateDonationInput{
		CampaignID:    ref.CampaignID,
		DonorID:       ref.DonorID,
		Amount:        input.ActualAmount,
		PaymentMethod: model.PaymentMethodBankTransfer,
		IsAnonymous:   ref.DonorID == nil,
		DonorName:     input.SenderName,
	})
	if err != nil {
		return nil, err
	}

	won, err := s.transferRepo.MarkMatched(ctx, ref.ID, donation.ID, input.SenderName, input.SenderIBAN)
	if err != nil {
		return nil, err
	}
	if !won {
		// Another operator matched the same code first; discard the ledger
		// entry opened for this attempt.
		if _, failErr := s.donations.FailDonation(ctx, donation.ID, "reference already matched"); failErr != nil {
			s.logger.Error("Failed to discard donation after losing match race",
				zap.String("donation_id", donation.ID.String()),
				zap.Error(failErr))
		}
		return nil, errors.Conflict("reference already matched")
	}

	return s.donations.CompleteDonation(ctx, donation.ID)
}

// CancelReference lets the donor cancel their own pending reference.
func (s *BankTransferService) CancelReference(ctx context.Context, code string, donorID uuid.UUID) error {
	ref, err := s.GetReference(ctx, code)
	if err != nil {
		return err
	}
	if ref.DonorID == nil || *ref.DonorID != donorID {
		return errors.Forbidden("reference does not belong to this donor")
	}

	won, err := s.transferRepo.MarkCancelled(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !won {
		return errors.Conflict("reference is no longer pending")
	}
	return nil
}

// ListDonorReferences returns the donor's pending references.
func (s *BankTransferService) ListDonorReferences(ctx context.Context, donorID uuid.UUID) ([]model.BankTransferReference, error) {
	return s.transferRepo.ListPendingByDonor(ctx, donorID)
}

// ExpireOverdue sweeps pending references past their expiry. It returns
// how many references this sweep actually transitioned.
func (s *BankTransferService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.transferRepo.ListExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ref := range overdue {
		won, err := s.transferRepo.MarkExpired(ctx, ref.ID)
		if err != nil {
			s.logger.Error("Failed to expire reference",
				zap.String("reference_code", ref.ReferenceCode),
				zap.Error(err))
			continue
		}
		if !won {
			continue
		}
		expired++

		if err := s.publisher.Publish(ctx, event.ChannelBankTransferExpired, event.BankTransferExpired{
			ReferenceID:   ref.ID,
			ReferenceCode: ref.ReferenceCode,
			DonorID:       ref.DonorID,
			OccurredAt:    time.Now(),
		}); err != nil {
			s.logger.Warn("Failed to publish expiry event",
				zap.String("reference_code", ref.ReferenceCode),
				zap.Error(err))
		}
	}

	if expired > 0 {
		s.logger.Info("Expired overdue bank transfer references", zap.Int("count", expired))
	}
	return expired, nil
}
