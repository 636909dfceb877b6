package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/provider"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/errors"
)

// Initiate3DSInput starts a 3-D Secure flow for either a single donation
// or a whole payment session; exactly one of the two ids is set.
type Initiate3DSInput struct {
	DonationID *uuid.UUID
	SessionID  *uuid.UUID
	ActorID    uuid.UUID
	Card       provider.Card
}

// Initiate3DSResult carries the bank challenge the client renders.
type Initiate3DSResult struct {
	HTMLContent       string `json:"html_content"`
	ProviderPaymentID string `json:"provider_payment_id"`
}

// PaymentService orchestrates gateway interactions: 3DS flows, recurring
// charges and refund execution. Every gateway interaction, success or
// failure, leaves a transaction record.
type PaymentService struct {
	gateway         provider.Gateway
	donationRepo    repository.DonationRepository
	transactionRepo repository.TransactionRepository
	recurringRepo   repository.RecurringRepository
	userRepo        repository.UserRepository
	donations       *DonationService
	sessions        *SessionService
	recurring       *RecurringService
	callbackURL     string
	logger          *zap.Logger
}

// NewPaymentService creates a new payment orchestration service instance
func NewPaymentService(
	gateway provider.Gateway,
	donationRepo repository.DonationRepository,
	transactionRepo repository.TransactionRepository,
	recurringRepo repository.RecurringRepository,
	userRepo repository.UserRepository,
	donations *DonationService,
	sessions *SessionService,
	recurring *RecurringService,
	callbackURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:         gateway,
		donationRepo:    donationRepo,
		transactionRepo: transactionRepo,
		recurringRepo:   recurringRepo,
		userRepo:        userRepo,
		donations:       donations,
		sessions:        sessions,
		recurring:       recurring,
		callbackURL:     callbackURL,
		logger:          logger,
	}
}

// Initiate3DS starts a 3DS challenge. The conversation id sent to the
// gateway is the donation or session id, which the callback uses to find
// its way back.
func (s *PaymentService) Initiate3DS(ctx context.Context, input Initiate3DSInput) (*Initiate3DSResult, error) {
	if (input.DonationID == nil) == (input.SessionID == nil) {
		return nil, errors.Validation("exactly one of donation_id and session_id must be set")
	}

	var conversationID string
	var amount decimal.Decimal
	var currency string

	if input.DonationID != nil {
		donation, err := s.donations.GetDonation(ctx, *input.DonationID)
		if err != nil {
			return nil, err
		}
		if donation.Status == model.DonationStatusCompleted {
			return nil, errors.Conflict("donation is already paid")
		}
		if donation.Status != model.DonationStatusPending {
			return nil, errors.Conflict("donation is not payable")
		}
		conversationID = donation.ID.String()
		amount = donation.Amount
		currency = donation.Currency
	} else {
		session, err := s.sessions.Get(ctx, *input.SessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID != input.ActorID {
			return nil, errors.Forbidden("session does not belong to this user")
		}
		if session.Status != model.SessionStatusPending {
			return nil, errors.Conflict("session is not payable")
		}
		if session.TotalAmount.LessThanOrEqual(decimal.Zero) {
			return nil, errors.Conflict("session is empty")
		}
		conversationID = session.ID.String()
		amount = session.TotalAmount
		currency = session.Currency
	}

	req := &provider.ChargeRequest{
		ConversationID: conversationID,
		Amount:         amount,
		Currency:       currency,
		Card:           &input.Card,
		BuyerID:        input.ActorID.String(),
		CallbackURL:    s.callbackURL,
	}
	if user, err := s.userRepo.GetByID(ctx, input.ActorID); err == nil && user != nil {
		req.BuyerEmail = user.Email
		req.CardUserKey = user.CardUserKey
	}

	result, err := s.gateway.Initialize3DS(ctx, req)
	if err != nil {
		return nil, errors.Gateway("failed to initialize 3DS payment", err)
	}

	s.logger.Info("3DS flow initialized",
		zap.String("conversation_id", conversationID),
		zap.String("provider_payment_id", result.ProviderPaymentID))
	return &Initiate3DSResult{
		HTMLContent:       result.HTMLContent,
		ProviderPaymentID: result.ProviderPaymentID,
	}, nil
}

// Complete3DSCallback finishes the flow when the bank redirects back. The
// conversation id is resolved first as a donation, then as a session. Both
// outcomes are recorded as transactions before any ledger transition; a
// gateway transport failure settles everything as a failed charge rather
// than leave pending entries dangling.
func (s *PaymentService) Complete3DSCallback(ctx context.Context, providerPaymentID, conversationID string) error {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return errors.Validation("invalid conversation id")
	}

	result, gwErr := s.gateway.Complete3DS(ctx, providerPaymentID, conversationID)
	if gwErr != nil {
		result = transportFailureResult(providerPaymentID, gwErr)
	}

	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if donation != nil {
		if err := s.settleDonation(ctx, donation, result, true); err != nil {
			return err
		}
	} else {
		session, err := s.sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.settleSession(ctx, session, result); err != nil {
			return err
		}
	}

	if gwErr != nil {
		return errors.Gateway("failed to complete 3DS payment", gwErr)
	}
	return nil
}

func (s *PaymentService) settleDonation(ctx context.Context, donation *model.Donation, result *provider.ChargeResult, threeDS bool) error {
	tx := s.buildTransaction(donation, result, threeDS)
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return err
	}
	if err := s.donationRepo.LinkTransaction(ctx, donation.ID, tx.ID); err != nil {
		s.logger.Error("Failed to link transaction",
			zap.String("donation_id", donation.ID.String()),
			zap.Error(err))
	}

	if !result.Success {
		reason := result.ErrorMsg
		if reason == "" {
			reason = "payment declined"
		}
		if _, err := s.donations.FailDonation(ctx, donation.ID, reason); err != nil {
			return err
		}
		return nil
	}

	if _, err := s.donations.CompleteDonation(ctx, donation.ID); err != nil {
		return err
	}
	s.storeCardToken(ctx, donation.DonorID, result)
	return nil
}

func (s *PaymentService) settleSession(ctx context.Context, session *model.PaymentSession, result *provider.ChargeResult) error {
	members, err := s.donationRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return err
	}

	// One gateway charge, one audit record per member donation so every
	// ledger entry keeps its own trail.
	for i := range members {
		tx := s.buildTransaction(&members[i], result, true)
		tx.Amount = members[i].Amount
		tx.NetAmount = members[i].Amount.Sub(tx.FeeAmount)
		if err := s.transactionRepo.Create(ctx, tx); err != nil {
			return err
		}
		if err := s.donationRepo.LinkTransaction(ctx, members[i].ID, tx.ID); err != nil {
			s.logger.Error("Failed to link transaction",
				zap.String("donation_id", members[i].ID.String()),
				zap.Error(err))
		}
	}

	if !result.Success {
		reason := result.ErrorMsg
		if reason == "" {
			reason = "payment declined"
		}
		for i := range members {
			if _, err := s.donations.FailDonation(ctx, members[i].ID, reason); err != nil {
				s.logger.Error("Failed to fail session donation",
					zap.String("donation_id", members[i].ID.String()),
					zap.Error(err))
			}
		}
		return nil
	}

	if _, err := s.sessions.Complete(ctx, session.ID); err != nil {
		return err
	}
	userID := session.UserID
	s.storeCardToken(ctx, &userID, result)
	return nil
}

// ChargeRecurring performs one billing cycle with the stored card token.
// Declines and transport failures both count against the failure streak;
// the subscription's due date only advances on success.
func (s *PaymentService) ChargeRecurring(ctx context.Context, rd *model.RecurringDonation) error {
	if rd.CardToken == "" {
		return s.recurring.RecordChargeFailure(ctx, rd, "no stored card token")
	}

	campaignID := rd.CampaignID
	if campaignID == nil {
		// Organization-targeted subscriptions have no campaign to book the
		// ledger entry against. Skipped, not failed: the protective pause
		// is for payment failures, not structural gaps.
		s.logger.Warn("Skipping recurring charge without a campaign target",
			zap.String("recurring_id", rd.ID.String()))
		return nil
	}

	donation, err := s.donations.create(ctx, CreateDonationInput{
		CampaignID:    *campaignID,
		DonorID:       &rd.DonorID,
		Amount:        rd.Amount,
		Currency:      rd.Currency,
		PaymentMethod: model.PaymentMethodRecurring,
	})
	if err != nil {
		return s.recurring.RecordChargeFailure(ctx, rd, err.Error())
	}

	cardUserKey := ""
	if user, err := s.userRepo.GetByID(ctx, rd.DonorID); err == nil && user != nil {
		cardUserKey = user.CardUserKey
	}

	result, gwErr := s.gateway.Charge(ctx, &provider.ChargeRequest{
		ConversationID: donation.ID.String(),
		Amount:         rd.Amount,
		Currency:       rd.Currency,
		CardToken:      rd.CardToken,
		CardUserKey:    cardUserKey,
		BuyerID:        rd.DonorID.String(),
	})
	if gwErr != nil {
		if err := s.settleDonation(ctx, donation, transportFailureResult("", gwErr), false); err != nil {
			s.logger.Error("Failed to settle recurring donation after gateway error",
				zap.String("donation_id", donation.ID.String()),
				zap.Error(err))
		}
		return s.recurring.RecordChargeFailure(ctx, rd, gwErr.Error())
	}

	if err := s.settleDonation(ctx, donation, result, false); err != nil {
		return err
	}
	if !result.Success {
		return s.recurring.RecordChargeFailure(ctx, rd, result.ErrorMsg)
	}

	if err := s.recurring.RecordChargeSuccess(ctx, rd, time.Now()); err != nil {
		return err
	}

	s.logger.Info("Recurring charge succeeded",
		zap.String("recurring_id", rd.ID.String()),
		zap.String("donation_id", donation.ID.String()),
		zap.String("amount", rd.Amount.String()))
	return nil
}

// ExecuteRefund pushes a requested refund through the gateway and closes
// the refund bookkeeping on the transaction and the donation.
func (s *PaymentService) ExecuteRefund(ctx context.Context, donationID uuid.UUID) error {
	donation, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return err
	}
	if donation.RefundStatus != model.RefundStatusRequested {
		return errors.Conflict("donation has no pending refund request")
	}

	tx, err := s.transactionRepo.GetByDonationID(ctx, donationID)
	if err != nil {
		return err
	}
	if tx == nil || tx.Status != model.TransactionStatusSuccess {
		return errors.Conflict("donation has no refundable transaction")
	}

	result, gwErr := s.gateway.Refund(ctx, &provider.RefundRequest{
		ProviderTransactionID: tx.ProviderTransactionID,
		Amount:                tx.Amount,
		Currency:              tx.Currency,
	})
	if gwErr != nil {
		return errors.Gateway("failed to execute refund", gwErr)
	}
	if !result.Success {
		return errors.Gateway(fmt.Sprintf("refund rejected by gateway: %s", result.ErrorMsg), nil)
	}

	now := time.Now()
	if _, err := s.transactionRepo.MarkRefunded(ctx, tx.ID, result.RefundedAmount, now); err != nil {
		return err
	}
	won, err := s.donationRepo.MarkRefundProcessed(ctx, donationID)
	if err != nil {
		return err
	}
	if !won {
		s.logger.Warn("Refund already processed on donation",
			zap.String("donation_id", donationID.String()))
	}

	s.logger.Info("Refund executed",
		zap.String("donation_id", donationID.String()),
		zap.String("amount", result.RefundedAmount.String()))
	return nil
}

// transportFailureResult turns a gateway transport error into a failed
// charge result so the attempt still leaves a transaction record.
func transportFailureResult(providerPaymentID string, err error) *provider.ChargeResult {
	result := &provider.ChargeResult{
		Success:           false,
		ProviderPaymentID: providerPaymentID,
	}
	var pErr *provider.Error
	if errors.As(err, &pErr) {
		result.ErrorCode = pErr.Code
		result.ErrorMsg = pErr.Message
	} else {
		result.ErrorCode = "GATEWAY_ERROR"
		result.ErrorMsg = err.Error()
	}
	return result
}

func (s *PaymentService) buildTransaction(donation *model.Donation, result *provider.ChargeResult, threeDS bool) *model.Transaction {
	status := model.TransactionStatusFailure
	if result.Success {
		status = model.TransactionStatusSuccess
	}

	amount := result.PaidAmount
	if amount.IsZero() {
		amount = donation.Amount
	}

	return &model.Transaction{
		DonationID:            donation.ID,
		PaymentProvider:       s.gateway.Name(),
		ProviderPaymentID:     result.ProviderPaymentID,
		ProviderTransactionID: result.ProviderTransactionID,
		Amount:                amount,
		FeeAmount:             result.FeeAmount,
		NetAmount:             amount.Sub(result.FeeAmount),
		Currency:              donation.Currency,
		Status:                status,
		Is3DSecure:            threeDS,
		ErrorCode:             result.ErrorCode,
		ErrorMessage:          result.ErrorMsg,
		CardLastFour:          result.CardLastFour,
		RawResponse:           model.JSONB(result.Raw),
		ProcessedAt:           time.Now(),
	}
}

// storeCardToken backfills a freshly issued gateway token onto the donor's
// token-less subscriptions so future cycles can charge without the card.
func (s *PaymentService) storeCardToken(ctx context.Context, donorID *uuid.UUID, result *provider.ChargeResult) {
	if donorID == nil || result.CardToken == "" {
		return
	}
	if err := s.recurringRepo.FillCardToken(ctx, *donorID, result.CardToken); err != nil {
		s.logger.Warn("Failed to store card token",
			zap.String("donor_id", donorID.String()),
			zap.Error(err))
	}
}
