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
)

// CreateDonationInput carries everything needed to open a ledger entry.
type CreateDonationInput struct {
	CampaignID    uuid.UUID
	DonorID       *uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod model.PaymentMethod
	IsAnonymous   bool
	DonorName     string
	Message       string
}

// DonationService is the donation ledger. It owns every donation state
// transition; no other component writes donation rows.
type DonationService struct {
	donationRepo repository.DonationRepository
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	receipts     *ReceiptService
	settings     *SettingService
	publisher    event.Publisher
	logger       *zap.Logger
}

// NewDonationService creates a new donation service instance
func NewDonationService(
	donationRepo repository.DonationRepository,
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	receipts *ReceiptService,
	settings *SettingService,
	publisher event.Publisher,
	logger *zap.Logger,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		receipts:     receipts,
		settings:     settings,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateDonation opens a PENDING ledger entry against an active campaign.
func (s *DonationService) CreateDonation(ctx context.Context, input CreateDonationInput) (*model.Donation, error) {
	min := s.settings.MinDonationAmount(ctx)
	if input.Amount.LessThan(min) {
		return nil, errors.Validation(fmt.Sprintf("donation amount must be at least %s", min.StringFixed(2)))
	}
	return s.create(ctx, input)
}

// create opens the ledger entry without the platform minimum check. Money
// that already arrived (bank transfer matching) is recorded at whatever
// amount it came in.
func (s *DonationService) create(ctx context.Context, input CreateDonationInput) (*model.Donation, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Validation("donation amount must be positive")
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

	displayName, err := s.resolveDisplayName(ctx, input)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "TRY"
	}

	donation := &model.Donation{
		CampaignID:       input.CampaignID,
		DonorID:          input.DonorID,
		Amount:           input.Amount,
		Currency:         currency,
		Status:           model.DonationStatusPending,
		PaymentMethod:    input.PaymentMethod,
		IsAnonymous:      input.IsAnonymous,
		DonorDisplayName: displayName,
		DonorMessage:     input.Message,
		RefundStatus:     model.RefundStatusNone,
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.publish(ctx, event.ChannelDonationCreated, event.DonationCreated{
		DonationID:  donation.ID,
		CampaignID:  donation.CampaignID,
		DonorID:     donation.DonorID,
		Amount:      donation.Amount,
		Currency:    donation.Currency,
		IsAnonymous: donation.IsAnonymous,
		OccurredAt:  time.Now(),
	})

	s.logger.Info("Donation created",
		zap.String("donation_id", donation.ID.String()),
		zap.String("campaign_id", donation.CampaignID.String()),
		zap.String("amount", donation.Amount.String()))
	return donation, nil
}

// resolveDisplayName picks the name shown on public donor lists. Anonymous
// donations always render the anonymous name regardless of what was sent.
func (s *DonationService) resolveDisplayName(ctx context.Context, input CreateDonationInput) (string, error) {
	if input.IsAnonymous {
		return model.AnonymousDonorName, nil
	}
	if input.DonorName != "" {
		return input.DonorName, nil
	}
	if input.DonorID != nil {
		user, err := s.userRepo.GetByID(ctx, *input.DonorID)
		if err != nil {
			return "", err
		}
		if user != nil && user.DisplayName != "" {
			return user.DisplayName, nil
		}
	}
	return model.AnonymousDonorName, nil
}

// CompleteDonation performs the PENDING -> COMPLETED transition. It is
// idempotent for completed donations: the campaign counters move and the
// receipt is issued only on the winning call. Completing a FAILED donation
// is a conflict.
func (s *DonationService) CompleteDonation(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	won, err := s.donationRepo.CompleteIfPending(ctx, id)
	if err != nil {
		return nil, err
	}

	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}

	if !won {
		if donation.Status == model.DonationStatusCompleted {
			return donation, nil
		}
		return nil, errors.Conflict("donation is not pending")
	}

	if err := s.campaignRepo.IncrementDonationStats(ctx, donation.CampaignID, donation.Amount); err != nil {
		// The donation is already completed; counters can be reconciled
		// offline, so log instead of unwinding the transition.
		s.logger.Error("Failed to increment campaign stats after completion",
			zap.String("donation_id", id.String()),
			zap.Error(err))
	}

	receiptNumber := ""
	receipt, err := s.receipts.IssueReceipt(ctx, donation.ID)
	if err != nil {
		s.logger.Error("Failed to issue receipt",
			zap.String("donation_id", id.String()),
			zap.Error(err))
	} else {
		receiptNumber = receipt.ReceiptNumber
	}

	organizationID := uuid.Nil
	if campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID); err == nil && campaign != nil {
		organizationID = campaign.OrganizationID
	}

	s.publish(ctx, event.ChannelDonationCompleted, event.DonationCompleted{
		DonationID:     donation.ID,
		CampaignID:     donation.CampaignID,
		OrganizationID: organizationID,
		DonorID:        donation.DonorID,
		Amount:         donation.Amount,
		TransactionID:  donation.TransactionID,
		ReceiptNumber:  receiptNumber,
		OccurredAt:     time.Now(),
	})

	s.logger.Info("Donation completed", zap.String("donation_id", id.String()))
	return donation, nil
}

// FailDonation performs the PENDING -> FAILED transition. Failing an
// already failed donation is a no-op; failing a completed one is a conflict.
func (s *DonationService) FailDonation(ctx context.Context, id uuid.UUID, reason string) (*model.Donation, error) {
	won, err := s.donationRepo.FailIfPending(ctx, id)
	if err != nil {
		return nil, err
	}

	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}

	if !won {
		if donation.Status == model.DonationStatusFailed {
			return donation, nil
		}
		return nil, errors.Conflict("donation is not pending")
	}

	s.publish(ctx, event.ChannelDonationFailed, event.DonationFailed{
		DonationID: donation.ID,
		CampaignID: donation.CampaignID,
		DonorID:    donation.DonorID,
		Reason:     reason,
		OccurredAt: time.Now(),
	})

	s.logger.Info("Donation failed",
		zap.String("donation_id", id.String()),
		zap.String("reason", reason))
	return donation, nil
}

// RequestRefund opens a refund request on the donor's own completed
// donation. The 14-day window is measured from donation creation and the
// boundary is inclusive.
func (s *DonationService) RequestRefund(ctx context.Context, donationID, actorID uuid.UUID, reason string) (*model.Donation, error) {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}
	if donation.DonorID == nil || *donation.DonorID != actorID {
		return nil, errors.Forbidden("donation does not belong to this donor")
	}
	if donation.Status != model.DonationStatusCompleted {
		return nil, errors.Conflict("only completed donations can be refunded")
	}
	if donation.RefundStatus != model.RefundStatusNone {
		return nil, errors.Conflict("refund already requested")
	}

	now := time.Now()
	if now.After(donation.CreatedAt.Add(model.RefundWindow)) {
		return nil, errors.Conflict("refund window has passed")
	}

	won, err := s.donationRepo.MarkRefundRequested(ctx, donationID, reason, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errors.Conflict("refund already requested")
	}

	s.publish(ctx, event.ChannelDonationRefundRequested, event.DonationRefundRequested{
		DonationID: donation.ID,
		CampaignID: donation.CampaignID,
		DonorID:    actorID,
		Amount:     donation.Amount,
		Reason:     reason,
		OccurredAt: now,
	})

	return s.donationRepo.GetByID(ctx, donationID)
}

// GetDonation returns a donation by id.
func (s *DonationService) GetDonation(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}
	return donation, nil
}

// ListDonorDonations returns the donor's own donation history.
func (s *DonationService) ListDonorDonations(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.donationRepo.ListByDonor(ctx, donorID, limit, offset)
}

// ListCampaignDonors returns the campaign's public donor list: completed,
// non-anonymous donations with their display names.
func (s *DonationService) ListCampaignDonors(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.donationRepo.ListPublicDonors(ctx, campaignID, limit, offset)
}

func (s *DonationService) publish(ctx context.Context, channel string, payload interface{}) {
	if err := s.publisher.Publish(ctx, channel, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("channel", channel),
			zap.Error(err))
	}
}
