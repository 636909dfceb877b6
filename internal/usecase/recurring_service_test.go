package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/event"
	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	"github.com/seffafbagis/donation-platform/pkg/errors"
)

type mockCharger struct {
	mock.Mock
}

func (m *mockCharger) ChargeRecurring(ctx context.Context, rd *model.RecurringDonation) error {
	args := m.Called(ctx, rd)
	return args.Error(0)
}

type recurringServiceFixture struct {
	recurring *MockRecurringRepository
	campaigns *MockCampaignRepository
	charger   *mockCharger
	publisher *recordingPublisher
	service   *usecase.RecurringService
}

func newRecurringServiceFixture() *recurringServiceFixture {
	f := &recurringServiceFixture{
		recurring: new(MockRecurringRepository),
		campaigns: new(MockCampaignRepository),
		charger:   new(mockCharger),
		publisher: &recordingPublisher{},
	}
	f.service = usecase.NewRecurringService(f.recurring, f.campaigns, f.publisher, zap.NewNop())
	f.service.SetCharger(f.charger)
	return f
}

func activeSubscription(donorID uuid.UUID) *model.RecurringDonation {
	campaignID := uuid.New()
	orgID := uuid.New()
	return &model.RecurringDonation{
		ID:              uuid.New(),
		DonorID:         donorID,
		CampaignID:      &campaignID,
		OrganizationID:  &orgID,
		Amount:          decimal.NewFromInt(100),
		Currency:        "TRY",
		Frequency:       model.FrequencyMonthly,
		NextPaymentDate: time.Now().AddDate(0, 1, 0),
		Status:          model.RecurringStatusActive,
		CardToken:       "card-token-1",
	}
}

func TestNextDate(t *testing.T) {
	from := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("weekly adds seven days", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 3, 22, 10, 0, 0, 0, time.UTC), usecase.NextDate(from, model.FrequencyWeekly))
	})

	t.Run("monthly adds one month", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC), usecase.NextDate(from, model.FrequencyMonthly))
	})

	t.Run("yearly adds one year", func(t *testing.T) {
		assert.Equal(t, time.Date(2027, 3, 15, 10, 0, 0, 0, time.UTC), usecase.NextDate(from, model.FrequencyYearly))
	})

	t.Run("unknown frequency falls back to monthly", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC), usecase.NextDate(from, model.Frequency("daily")))
	})
}

func TestMonthlyEquivalent(t *testing.T) {
	t.Run("weekly counts four times", func(t *testing.T) {
		rd := &model.RecurringDonation{
			Status:    model.RecurringStatusActive,
			Frequency: model.FrequencyWeekly,
			Amount:    decimal.NewFromInt(50),
		}
		assert.True(t, decimal.NewFromInt(200).Equal(usecase.MonthlyEquivalent(rd)))
	})

	t.Run("yearly splits into twelve rounded to cents", func(t *testing.T) {
		rd := &model.RecurringDonation{
			Status:    model.RecurringStatusActive,
			Frequency: model.FrequencyYearly,
			Amount:    decimal.NewFromInt(1000),
		}
		assert.True(t, decimal.RequireFromString("83.33").Equal(usecase.MonthlyEquivalent(rd)))
	})

	t.Run("monthly passes through", func(t *testing.T) {
		rd := &model.RecurringDonation{
			Status:    model.RecurringStatusActive,
			Frequency: model.FrequencyMonthly,
			Amount:    decimal.NewFromInt(75),
		}
		assert.True(t, decimal.NewFromInt(75).Equal(usecase.MonthlyEquivalent(rd)))
	})

	t.Run("paused subscription contributes zero", func(t *testing.T) {
		rd := &model.RecurringDonation{
			Status:    model.RecurringStatusPaused,
			Frequency: model.FrequencyMonthly,
			Amount:    decimal.NewFromInt(75),
		}
		assert.True(t, usecase.MonthlyEquivalent(rd).IsZero())
	})
}

func TestRecurringService_Create(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()
	campaignID := uuid.New()
	orgID := uuid.New()

	t.Run("campaign subscription resolves the owning organization", func(t *testing.T) {
		f := newRecurringServiceFixture()
		campaign := activeCampaign(campaignID)
		f.campaigns.On("GetByID", ctx, campaignID).Return(campaign, nil)
		f.recurring.On("Create", ctx, mock.AnythingOfType("*model.RecurringDonation")).Return(nil)

		rd, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:    donorID,
			CampaignID: &campaignID,
			Amount:     decimal.NewFromInt(100),
			Frequency:  model.FrequencyMonthly,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.RecurringStatusActive, rd.Status)
		assert.Equal(t, campaign.OrganizationID, *rd.OrganizationID)
		assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), rd.NextPaymentDate, 5*time.Second)
	})

	t.Run("organization subscription needs no campaign", func(t *testing.T) {
		f := newRecurringServiceFixture()
		f.recurring.On("Create", ctx, mock.AnythingOfType("*model.RecurringDonation")).Return(nil)

		rd, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:        donorID,
			OrganizationID: &orgID,
			Amount:         decimal.NewFromInt(50),
			Frequency:      model.FrequencyWeekly,
		})

		assert.NoError(t, err)
		assert.Nil(t, rd.CampaignID)
		assert.Equal(t, orgID, *rd.OrganizationID)
		f.campaigns.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects a paused campaign target", func(t *testing.T) {
		f := newRecurringServiceFixture()
		campaign := activeCampaign(campaignID)
		campaign.Status = model.CampaignStatusPaused
		f.campaigns.On("GetByID", ctx, campaignID).Return(campaign, nil)

		_, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:    donorID,
			CampaignID: &campaignID,
			Amount:     decimal.NewFromInt(50),
			Frequency:  model.FrequencyMonthly,
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})

	t.Run("rejects both targets set", func(t *testing.T) {
		f := newRecurringServiceFixture()

		_, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:        donorID,
			CampaignID:     &campaignID,
			OrganizationID: &orgID,
			Amount:         decimal.NewFromInt(50),
			Frequency:      model.FrequencyMonthly,
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})

	t.Run("rejects neither target set", func(t *testing.T) {
		f := newRecurringServiceFixture()

		_, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:   donorID,
			Amount:    decimal.NewFromInt(50),
			Frequency: model.FrequencyMonthly,
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})

	t.Run("rejects unsupported frequency", func(t *testing.T) {
		f := newRecurringServiceFixture()

		_, err := f.service.Create(ctx, usecase.CreateRecurringInput{
			DonorID:    donorID,
			CampaignID: &campaignID,
			Amount:     decimal.NewFromInt(50),
			Frequency:  model.Frequency("daily"),
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})
}

func TestRecurringService_Transitions(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("pause requires an active subscription", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusPaused).Return(false, nil)

		err := f.service.Pause(ctx, rd.ID, donorID)

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
	})

	t.Run("resume reschedules even when the due date is still ahead", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.Status = model.RecurringStatusPaused
		rd.NextPaymentDate = time.Now().AddDate(0, 0, 5)
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusPaused, model.RecurringStatusActive).Return(true, nil)
		f.recurring.On("SetNextPaymentDate", ctx, rd.ID, mock.MatchedBy(func(d time.Time) bool {
			return d.After(time.Now())
		})).Return(nil)

		err := f.service.Resume(ctx, rd.ID, donorID)

		assert.NoError(t, err)
		f.recurring.AssertExpectations(t)
	})

	t.Run("resume reschedules one cycle out from today", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.Status = model.RecurringStatusPaused
		rd.NextPaymentDate = time.Now().AddDate(0, -2, 0)
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusPaused, model.RecurringStatusActive).Return(true, nil)
		f.recurring.On("SetNextPaymentDate", ctx, rd.ID, mock.MatchedBy(func(d time.Time) bool {
			return d.After(time.Now())
		})).Return(nil)

		err := f.service.Resume(ctx, rd.ID, donorID)

		assert.NoError(t, err)
		f.recurring.AssertExpectations(t)
	})

	t.Run("cancel works from paused as well", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.Status = model.RecurringStatusPaused
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusCancelled).Return(false, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusPaused, model.RecurringStatusCancelled).Return(true, nil)

		err := f.service.Cancel(ctx, rd.ID, donorID)

		assert.NoError(t, err)
	})

	t.Run("cancelling twice is a conflict", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.Status = model.RecurringStatusCancelled
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusCancelled).Return(false, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusPaused, model.RecurringStatusCancelled).Return(false, nil)

		err := f.service.Cancel(ctx, rd.ID, donorID)

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
	})

	t.Run("another donor cannot touch the subscription", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)

		err := f.service.Pause(ctx, rd.ID, uuid.New())

		assert.True(t, errors.IsCode(err, errors.ErrForbidden))
		f.recurring.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecurringService_Update(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("frequency change reschedules from today", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("Update", ctx, mock.AnythingOfType("*model.RecurringDonation")).Return(nil)

		weekly := model.FrequencyWeekly
		updated, err := f.service.Update(ctx, rd.ID, donorID, usecase.UpdateRecurringInput{Frequency: &weekly})

		assert.NoError(t, err)
		assert.Equal(t, model.FrequencyWeekly, updated.Frequency)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), updated.NextPaymentDate, 5*time.Second)
	})

	t.Run("amount change keeps the schedule", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		due := rd.NextPaymentDate
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)
		f.recurring.On("Update", ctx, mock.AnythingOfType("*model.RecurringDonation")).Return(nil)

		amount := decimal.NewFromInt(250)
		updated, err := f.service.Update(ctx, rd.ID, donorID, usecase.UpdateRecurringInput{Amount: &amount})

		assert.NoError(t, err)
		assert.True(t, amount.Equal(updated.Amount))
		assert.Equal(t, due, updated.NextPaymentDate)
	})

	t.Run("cancelled subscription cannot be changed", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.Status = model.RecurringStatusCancelled
		f.recurring.On("GetByID", ctx, rd.ID).Return(rd, nil)

		amount := decimal.NewFromInt(250)
		_, err := f.service.Update(ctx, rd.ID, donorID, usecase.UpdateRecurringInput{Amount: &amount})

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
	})
}

func TestRecurringService_ChargeBookkeeping(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("success reschedules one cycle out from the payment date", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		paidAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
		f.recurring.On("RecordSuccess", ctx, rd.ID, rd.Amount, paidAt,
			time.Date(2026, 9, 29, 10, 0, 0, 0, time.UTC)).Return(nil)

		err := f.service.RecordChargeSuccess(ctx, rd, paidAt)

		assert.NoError(t, err)
		f.recurring.AssertExpectations(t)
	})

	t.Run("a subscription overdue by several cycles is not due again after charging", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		rd.NextPaymentDate = time.Now().AddDate(0, -3, 0)
		paidAt := time.Now()
		f.recurring.On("RecordSuccess", ctx, rd.ID, rd.Amount, paidAt,
			mock.MatchedBy(func(next time.Time) bool {
				return next.After(time.Now())
			})).Return(nil)

		err := f.service.RecordChargeSuccess(ctx, rd, paidAt)

		assert.NoError(t, err)
		f.recurring.AssertExpectations(t)
	})

	t.Run("failures below the limit leave the subscription alone", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("IncrementFailure", ctx, rd.ID, "card declined").Return(2, nil)

		err := f.service.RecordChargeFailure(ctx, rd, "card declined")

		assert.NoError(t, err)
		f.recurring.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.channels())
	})

	t.Run("third consecutive failure pauses and notifies", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("IncrementFailure", ctx, rd.ID, "card declined").Return(3, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusPaused).Return(true, nil)

		err := f.service.RecordChargeFailure(ctx, rd, "card declined")

		assert.NoError(t, err)
		assert.Equal(t, []string{event.ChannelRecurringPaused}, f.publisher.channels())
	})

	t.Run("losing the pause race emits nothing", func(t *testing.T) {
		f := newRecurringServiceFixture()
		rd := activeSubscription(donorID)
		f.recurring.On("IncrementFailure", ctx, rd.ID, "card declined").Return(4, nil)
		f.recurring.On("UpdateStatusIf", ctx, rd.ID, model.RecurringStatusActive, model.RecurringStatusPaused).Return(false, nil)

		err := f.service.RecordChargeFailure(ctx, rd, "card declined")

		assert.NoError(t, err)
		assert.Empty(t, f.publisher.channels())
	})
}

func TestRecurringService_ProcessDue(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("charges every due subscription and isolates failures", func(t *testing.T) {
		f := newRecurringServiceFixture()
		first := activeSubscription(donorID)
		second := activeSubscription(donorID)
		f.recurring.On("ListDue", ctx, mock.AnythingOfType("time.Time")).
			Return([]model.RecurringDonation{*first, *second}, nil)
		f.charger.On("ChargeRecurring", ctx, mock.MatchedBy(func(rd *model.RecurringDonation) bool {
			return rd.ID == first.ID
		})).Return(errors.New("gateway unreachable"))
		f.charger.On("ChargeRecurring", ctx, mock.MatchedBy(func(rd *model.RecurringDonation) bool {
			return rd.ID == second.ID
		})).Return(nil)

		charged, err := f.service.ProcessDue(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, charged)
		f.charger.AssertNumberOfCalls(t, "ChargeRecurring", 2)
	})
}

func TestRecurringService_ListByDonor(t *testing.T) {
	ctx := context.Background()
	donorID := uuid.New()

	t.Run("sums the monthly equivalent of active subscriptions", func(t *testing.T) {
		f := newRecurringServiceFixture()
		weekly := activeSubscription(donorID)
		weekly.Frequency = model.FrequencyWeekly
		weekly.Amount = decimal.NewFromInt(50)
		paused := activeSubscription(donorID)
		paused.Status = model.RecurringStatusPaused
		monthly := activeSubscription(donorID)
		monthly.Amount = decimal.NewFromInt(100)
		f.recurring.On("ListByDonor", ctx, donorID).
			Return([]model.RecurringDonation{*weekly, *paused, *monthly}, nil)

		summary, err := f.service.ListByDonor(ctx, donorID)

		assert.NoError(t, err)
		assert.Len(t, summary.Subscriptions, 3)
		assert.True(t, decimal.NewFromInt(300).Equal(summary.MonthlyTotal))
	})
}
