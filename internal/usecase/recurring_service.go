package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/event"
	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/errors"
)

// RecurringCharger performs one billing cycle for a due subscription. The
// payment orchestrator implements it; the indirection keeps the scheduler
// testable without a gateway.
type RecurringCharger interface {
	ChargeRecurring(ctx context.Context, rd *model.RecurringDonation) error
}

// CreateRecurringInput opens a donor subscription. Exactly one of
// CampaignID and OrganizationID must be set.
type CreateRecurringInput struct {
	DonorID        uuid.UUID
	CampaignID     *uuid.UUID
	OrganizationID *uuid.UUID
	Amount         decimal.Decimal
	Frequency      model.Frequency
	CardToken      string
}

// UpdateRecurringInput changes the amount and/or frequency of a
// subscription. Nil fields are left untouched.
type UpdateRecurringInput struct {
	Amount    *decimal.Decimal
	Frequency *model.Frequency
}

// RecurringService owns donor subscriptions: lifecycle transitions,
// schedule arithmetic and the due-charge sweep.
type RecurringService struct {
	recurringRepo repository.RecurringRepository
	campaignRepo  repository.CampaignRepository
	charger       RecurringCharger
	publisher     event.Publisher
	logger        *zap.Logger
}

// NewRecurringService creates a new recurring donation service instance
func NewRecurringService(
	recurringRepo repository.RecurringRepository,
	campaignRepo repository.CampaignRepository,
	publisher event.Publisher,
	logger *zap.Logger,
) *RecurringService {
	return &RecurringService{
		recurringRepo: recurringRepo,
		campaignRepo:  campaignRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// SetCharger wires the payment orchestrator in after construction; the two
// services reference each other.
func (s *RecurringService) SetCharger(charger RecurringCharger) {
	s.charger = charger
}

// NextDate advances a billing date by one cycle. Unknown frequencies fall
// back to monthly.
func NextDate(from time.Time, frequency model.Frequency) time.Time {
	switch frequency {
	case model.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case model.FrequencyYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// MonthlyEquivalent normalizes a subscription's amount to a monthly figure:
// weekly times four, yearly divided by twelve rounded to cents. Inactive
// subscriptions contribute zero.
func MonthlyEquivalent(rd *model.RecurringDonation) decimal.Decimal {
	if rd.Status != model.RecurringStatusActive {
		return decimal.Zero
	}
	switch rd.Frequency {
	case model.FrequencyWeekly:
		return rd.Amount.Mul(decimal.NewFromInt(4))
	case model.FrequencyYearly:
		return rd.Amount.Div(decimal.NewFromInt(12)).Round(2)
	default:
		return rd.Amount
	}
}

// Create opens an active subscription. The first charge happens one cycle
// from now.
func (s *RecurringService) Create(ctx context.Context, input CreateRecurringInput) (*model.RecurringDonation, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Validation("recurring amount must be positive")
	}
	switch input.Frequency {
	case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyYearly:
	default:
		return nil, errors.Validation("frequency must be weekly, monthly or yearly")
	}
	if (input.CampaignID == nil) == (input.OrganizationID == nil) {
		return nil, errors.Validation("exactly one of campaign or organization must be the target")
	}

	organizationID := input.OrganizationID
	if input.CampaignID != nil {
		campaign, err := s.campaignRepo.GetByID(ctx, *input.CampaignID)
		if err != nil {
			return nil, err
		}
		if campaign == nil {
			return nil, errors.NotFound("campaign not found")
		}
		if campaign.Status != model.CampaignStatusActive {
			return nil, errors.Validation("campaign is not accepting donations")
		}
		organizationID = &campaign.OrganizationID
	}

	rd := &model.RecurringDonation{
		DonorID:         input.DonorID,
		CampaignID:      input.CampaignID,
		OrganizationID:  organizationID,
		Amount:          input.Amount,
		Currency:        "TRY",
		Frequency:       input.Frequency,
		NextPaymentDate: NextDate(time.Now(), input.Frequency),
		TotalDonated:    decimal.Zero,
		Status:          model.RecurringStatusActive,
		CardToken:       input.CardToken,
	}
	if err := s.recurringRepo.Create(ctx, rd); err != nil {
		return nil, err
	}

	s.logger.Info("Recurring donation created",
		zap.String("id", rd.ID.String()),
		zap.String("frequency", string(rd.Frequency)),
		zap.String("amount", rd.Amount.String()))
	return rd, nil
}

// Update changes amount or frequency on an active or paused subscription.
// A frequency change reschedules from today.
func (s *RecurringService) Update(ctx context.Context, id, donorID uuid.UUID, input UpdateRecurringInput) (*model.RecurringDonation, error) {
	rd, err := s.getOwned(ctx, id, donorID)
	if err != nil {
		return nil, err
	}
	if rd.Status == model.RecurringStatusCancelled {
		return nil, errors.Conflict("cancelled subscriptions cannot be changed")
	}

	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, errors.Validation("recurring amount must be positive")
		}
		rd.Amount = *input.Amount
	}
	if input.Frequency != nil && *input.Frequency != rd.Frequency {
		switch *input.Frequency {
		case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyYearly:
		default:
			return nil, errors.Validation("frequency must be weekly, monthly or yearly")
		}
		rd.Frequency = *input.Frequency
		rd.NextPaymentDate = NextDate(time.Now(), rd.Frequency)
	}

	if err := s.recurringRepo.Update(ctx, rd); err != nil {
		return nil, err
	}
	return rd, nil
}

// Pause stops billing without losing the subscription.
func (s *RecurringService) Pause(ctx context.Context, id, donorID uuid.UUID) error {
	if _, err := s.getOwned(ctx, id, donorID); err != nil {
		return err
	}
	won, err := s.recurringRepo.UpdateStatusIf(ctx, id, model.RecurringStatusActive, model.RecurringStatusPaused)
	if err != nil {
		return err
	}
	if !won {
		return errors.Conflict("subscription is not active")
	}
	return nil
}

// Resume reactivates a paused subscription and reschedules one cycle out
// from today, so resuming never triggers an immediate catch-up charge.
func (s *RecurringService) Resume(ctx context.Context, id, donorID uuid.UUID) error {
	rd, err := s.getOwned(ctx, id, donorID)
	if err != nil {
		return err
	}
	won, err := s.recurringRepo.UpdateStatusIf(ctx, id, model.RecurringStatusPaused, model.RecurringStatusActive)
	if err != nil {
		return err
	}
	if !won {
		return errors.Conflict("subscription is not paused")
	}
	return s.recurringRepo.SetNextPaymentDate(ctx, id, NextDate(time.Now(), rd.Frequency))
}

// Cancel terminates the subscription. Cancelling twice is a conflict.
func (s *RecurringService) Cancel(ctx context.Context, id, donorID uuid.UUID) error {
	if _, err := s.getOwned(ctx, id, donorID); err != nil {
		return err
	}
	won, err := s.recurringRepo.UpdateStatusIf(ctx, id, model.RecurringStatusActive, model.RecurringStatusCancelled)
	if err != nil {
		return err
	}
	if !won {
		won, err = s.recurringRepo.UpdateStatusIf(ctx, id, model.RecurringStatusPaused, model.RecurringStatusCancelled)
		if err != nil {
			return err
		}
	}
	if !won {
		return errors.Conflict("subscription is already cancelled")
	}
	return nil
}

// Get returns the donor's subscription.
func (s *RecurringService) Get(ctx context.Context, id, donorID uuid.UUID) (*model.RecurringDonation, error) {
	return s.getOwned(ctx, id, donorID)
}

// DonorSummary is a donor's subscriptions plus their combined monthly
// commitment.
type DonorSummary struct {
	Subscriptions []model.RecurringDonation `json:"subscriptions"`
	MonthlyTotal  decimal.Decimal           `json:"monthly_total"`
}

// ListByDonor returns the donor's subscriptions with the aggregate monthly
// equivalent of the active ones.
func (s *RecurringService) ListByDonor(ctx context.Context, donorID uuid.UUID) (*DonorSummary, error) {
	subs, err := s.recurringRepo.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range subs {
		total = total.Add(MonthlyEquivalent(&subs[i]))
	}
	return &DonorSummary{Subscriptions: subs, MonthlyTotal: total}, nil
}

// ProcessDue runs one billing sweep: every active subscription whose due
// date has arrived gets one charge attempt. Failures are isolated per
// subscription.
func (s *RecurringService) ProcessDue(ctx context.Context) (int, error) {
	due, err := s.recurringRepo.ListDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	charged := 0
	for i := range due {
		rd := due[i]
		if err := s.charger.ChargeRecurring(ctx, &rd); err != nil {
			s.logger.Error("Recurring charge attempt failed",
				zap.String("id", rd.ID.String()),
				zap.Error(err))
			continue
		}
		charged++
	}
	return charged, nil
}

// RecordChargeFailure bumps the failure streak and applies the protective
// pause once the streak reaches the limit. The due date is left alone so
// the next sweep retries until the pause kicks in.
func (s *RecurringService) RecordChargeFailure(ctx context.Context, rd *model.RecurringDonation, errorMessage string) error {
	count, err := s.recurringRepo.IncrementFailure(ctx, rd.ID, errorMessage)
	if err != nil {
		return err
	}
	if count < model.MaxConsecutiveFailures {
		return nil
	}

	won, err := s.recurringRepo.UpdateStatusIf(ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusPaused)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	s.logger.Warn("Recurring donation paused after repeated failures",
		zap.String("id", rd.ID.String()),
		zap.Int("failure_count", count))

	if err := s.publisher.Publish(ctx, event.ChannelRecurringPaused, event.RecurringPaused{
		RecurringDonationID: rd.ID,
		DonorID:             rd.DonorID,
		FailureCount:        count,
		OccurredAt:          time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to publish pause event", zap.Error(err))
	}
	return nil
}

// RecordChargeSuccess applies one successful cycle and schedules the next
// one cycle out from the payment date. Rescheduling from the old due date
// would keep an overdue subscription due and charge it again on the very
// next sweep tick.
func (s *RecurringService) RecordChargeSuccess(ctx context.Context, rd *model.RecurringDonation, paidAt time.Time) error {
	next := NextDate(paidAt, rd.Frequency)
	return s.recurringRepo.RecordSuccess(ctx, rd.ID, rd.Amount, paidAt, next)
}

func (s *RecurringService) getOwned(ctx context.Context, id, donorID uuid.UUID) (*model.RecurringDonation, error) {
	rd, err := s.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rd == nil {
		return nil, errors.NotFound("recurring donation not found")
	}
	if rd.DonorID != donorID {
		return nil, errors.Forbidden("recurring donation does not belong to this donor")
	}
	return rd, nil
}
