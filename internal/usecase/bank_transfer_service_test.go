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
	"github.com/seffafbagis/donation-platform/pkg/refcode"
)

type bankTransferServiceFixture struct {
	*donationServiceFixture
	transfers *MockBankTransferRepository
	accounts  *MockBankAccountRepository
	service   *usecase.BankTransferService
}

func newBankTransferServiceFixture() *bankTransferServiceFixture {
	base := newDonationServiceFixture()
	f := &bankTransferServiceFixture{
		donationServiceFixture: base,
		transfers:              new(MockBankTransferRepository),
		accounts:               new(MockBankAccountRepository),
	}
	f.service = usecase.NewBankTransferService(
		f.transfers,
		f.accounts,
		base.campaigns,
		base.service,
		base.publisher,
		zap.NewNop(),
	)
	return f
}

func pendingReference(code string, campaignID uuid.UUID, donorID *uuid.UUID) *model.BankTransferReference {
	return &model.BankTransferReference{
		ID:             uuid.New(),
		ReferenceCode:  code,
		CampaignID:     campaignID,
		OrganizationID: uuid.New(),
		BankAccountID:  uuid.New(),
		BankAccount: model.BankAccountSnapshot{
			BankName:      "Ziraat Bankasi",
			AccountHolder: "Relief Foundation",
			IBAN:          "TR330006100519786457841326",
		},
		DonorID:        donorID,
		ExpectedAmount: decimal.NewFromInt(500),
		Status:         model.ReferenceStatusPending,
		ExpiresAt:      time.Now().Add(48 * time.Hour),
	}
}

func TestBankTransferService_CreateReference(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	donorID := uuid.New()

	t.Run("snapshots the receiving account onto the reference", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		campaign := activeCampaign(campaignID)
		account := &model.OrganizationBankAccount{
			ID:             uuid.New(),
			OrganizationID: campaign.OrganizationID,
			BankName:       "Ziraat Bankasi",
			AccountHolder:  "Relief Foundation",
			IBAN:           "TR330006100519786457841326",
			IsPrimary:      true,
			IsActive:       true,
		}
		f.campaigns.On("GetByID", ctx, campaignID).Return(campaign, nil)
		f.accounts.On("FirstForOrganization", ctx, campaign.OrganizationID).Return(account, nil)
		f.transfers.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil)
		f.transfers.On("Create", ctx, mock.AnythingOfType("*model.BankTransferReference")).Return(nil)

		ref, err := f.service.CreateReference(ctx, usecase.CreateReferenceInput{
			CampaignID:     campaignID,
			DonorID:        &donorID,
			ExpectedAmount: decimal.NewFromInt(500),
		})

		assert.NoError(t, err)
		assert.True(t, refcode.ValidateFormat(ref.ReferenceCode))
		assert.Equal(t, model.ReferenceStatusPending, ref.Status)
		assert.Equal(t, account.IBAN, ref.BankAccount.IBAN)
		assert.Equal(t, account.ID, ref.BankAccountID)
		assert.WithinDuration(t, time.Now().Add(model.ReferenceTTL), ref.ExpiresAt, 5*time.Second)
	})

	t.Run("regenerates the code on collision", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		campaign := activeCampaign(campaignID)
		f.campaigns.On("GetByID", ctx, campaignID).Return(campaign, nil)
		f.accounts.On("FirstForOrganization", ctx, campaign.OrganizationID).Return(&model.OrganizationBankAccount{
			ID:             uuid.New(),
			OrganizationID: campaign.OrganizationID,
			IsActive:       true,
		}, nil)
		f.transfers.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
		f.transfers.On("ExistsByCode", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		f.transfers.On("Create", ctx, mock.AnythingOfType("*model.BankTransferReference")).Return(nil)

		_, err := f.service.CreateReference(ctx, usecase.CreateReferenceInput{
			CampaignID:     campaignID,
			ExpectedAmount: decimal.NewFromInt(100),
		})

		assert.NoError(t, err)
		f.transfers.AssertNumberOfCalls(t, "ExistsByCode", 2)
	})

	t.Run("rejects a paused campaign", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		paused := activeCampaign(campaignID)
		paused.Status = model.CampaignStatusPaused
		f.campaigns.On("GetByID", ctx, campaignID).Return(paused, nil)

		_, err := f.service.CreateReference(ctx, usecase.CreateReferenceInput{
			CampaignID:     campaignID,
			ExpectedAmount: decimal.NewFromInt(100),
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})

	t.Run("rejects when organization has no active account", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		campaign := activeCampaign(campaignID)
		f.campaigns.On("GetByID", ctx, campaignID).Return(campaign, nil)
		f.accounts.On("FirstForOrganization", ctx, campaign.OrganizationID).Return(nil, nil)

		_, err := f.service.CreateReference(ctx, usecase.CreateReferenceInput{
			CampaignID:     campaignID,
			ExpectedAmount: decimal.NewFromInt(100),
		})

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
		f.transfers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive expected amount", func(t *testing.T) {
		f := newBankTransferServiceFixture()

		_, err := f.service.CreateReference(ctx, usecase.CreateReferenceInput{
			CampaignID:     campaignID,
			ExpectedAmount: decimal.Zero,
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})
}

func TestBankTransferService_GetReference(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed codes without a lookup", func(t *testing.T) {
		f := newBankTransferServiceFixture()

		_, err := f.service.GetReference(ctx, "not-a-code")

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
		f.transfers.AssertNotCalled(t, "GetByCode", mock.Anything, mock.Anything)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		f.transfers.On("GetByCode", ctx, code).Return(nil, nil)

		_, err := f.service.GetReference(ctx, code)

		assert.True(t, errors.IsCode(err, errors.ErrNotFound))
	})
}

func TestBankTransferService_MatchTransfer(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()

	t.Run("records the donation at the amount that arrived", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, nil)
		donationID := uuid.New()
		actual := decimal.NewFromInt(480)

		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)
		f.campaigns.On("GetByID", ctx, campaignID).Return(activeCampaign(campaignID), nil)
		f.donations.On("Create", ctx, mock.AnythingOfType("*model.Donation")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Donation).ID = donationID
			}).
			Return(nil)
		f.transfers.On("MarkMatched", ctx, ref.ID, donationID, "AHMET DEMIR", "TR560011100000000012345678").Return(true, nil)
		f.donations.On("CompleteIfPending", ctx, donationID).Return(true, nil)
		f.donations.On("GetByID", ctx, donationID).Return(&model.Donation{
			ID:         donationID,
			CampaignID: campaignID,
			Amount:     actual,
			Status:     model.DonationStatusCompleted,
		}, nil)
		f.campaigns.On("IncrementDonationStats", ctx, campaignID, actual).Return(nil)
		f.receipts.On("GetByDonationID", ctx, donationID).Return(nil, nil)
		f.receipts.On("NextSequenceForYear", ctx, time.Now().Year()).Return(int64(7), nil)
		f.receipts.On("Create", ctx, mock.AnythingOfType("*model.DonationReceipt")).Return(nil)

		donation, err := f.service.MatchTransfer(ctx, usecase.MatchTransferInput{
			ReferenceCode: code,
			ActualAmount:  actual,
			SenderName:    "AHMET DEMIR",
			SenderIBAN:    "TR560011100000000012345678",
		})

		assert.NoError(t, err)
		assert.Equal(t, model.DonationStatusCompleted, donation.Status)
		assert.Equal(t, actual, donation.Amount)
		assert.Contains(t, f.publisher.channels(), event.ChannelDonationCompleted)
		f.transfers.AssertExpectations(t)
	})

	t.Run("already matched reference is a conflict", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, nil)
		ref.Status = model.ReferenceStatusMatched
		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)

		_, err := f.service.MatchTransfer(ctx, usecase.MatchTransferInput{
			ReferenceCode: code,
			ActualAmount:  decimal.NewFromInt(500),
		})

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
		f.donations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pending reference past expiry is expired and rejected", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, nil)
		ref.ExpiresAt = time.Now().Add(-time.Hour)
		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)
		f.transfers.On("MarkExpired", ctx, ref.ID).Return(true, nil)

		_, err := f.service.MatchTransfer(ctx, usecase.MatchTransferInput{
			ReferenceCode: code,
			ActualAmount:  decimal.NewFromInt(500),
		})

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
		f.transfers.AssertCalled(t, "MarkExpired", ctx, ref.ID)
		f.donations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("losing the match race discards the opened donation", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, nil)
		donationID := uuid.New()

		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)
		f.campaigns.On("GetByID", ctx, campaignID).Return(activeCampaign(campaignID), nil)
		f.donations.On("Create", ctx, mock.AnythingOfType("*model.Donation")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Donation).ID = donationID
			}).
			Return(nil)
		f.transfers.On("MarkMatched", ctx, ref.ID, donationID, "AHMET DEMIR", "").Return(false, nil)
		f.donations.On("FailIfPending", ctx, donationID).Return(true, nil)
		f.donations.On("GetByID", ctx, donationID).Return(&model.Donation{
			ID:         donationID,
			CampaignID: campaignID,
			Status:     model.DonationStatusFailed,
		}, nil)

		_, err := f.service.MatchTransfer(ctx, usecase.MatchTransferInput{
			ReferenceCode: code,
			ActualAmount:  decimal.NewFromInt(500),
			SenderName:    "AHMET DEMIR",
		})

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
		f.donations.AssertCalled(t, "FailIfPending", ctx, donationID)
		f.donations.AssertNotCalled(t, "CompleteIfPending", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive transfer amount", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		f.transfers.On("GetByCode", ctx, code).Return(pendingReference(code, campaignID, nil), nil)

		_, err := f.service.MatchTransfer(ctx, usecase.MatchTransferInput{
			ReferenceCode: code,
			ActualAmount:  decimal.Zero,
		})

		assert.True(t, errors.IsCode(err, errors.ErrValidation))
	})
}

func TestBankTransferService_CancelReference(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	donorID := uuid.New()

	t.Run("donor cancels their own pending reference", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, &donorID)
		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)
		f.transfers.On("MarkCancelled", ctx, ref.ID).Return(true, nil)

		err := f.service.CancelReference(ctx, code, donorID)

		assert.NoError(t, err)
	})

	t.Run("another donor cannot cancel it", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		f.transfers.On("GetByCode", ctx, code).Return(pendingReference(code, campaignID, &donorID), nil)

		err := f.service.CancelReference(ctx, code, uuid.New())

		assert.True(t, errors.IsCode(err, errors.ErrForbidden))
		f.transfers.AssertNotCalled(t, "MarkCancelled", mock.Anything, mock.Anything)
	})

	t.Run("losing the cancel race is a conflict", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		code := refcode.Generate()
		ref := pendingReference(code, campaignID, &donorID)
		f.transfers.On("GetByCode", ctx, code).Return(ref, nil)
		f.transfers.On("MarkCancelled", ctx, ref.ID).Return(false, nil)

		err := f.service.CancelReference(ctx, code, donorID)

		assert.True(t, errors.IsCode(err, errors.ErrConflict))
	})
}

func TestBankTransferService_ExpireOverdue(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()

	t.Run("counts only the references this sweep transitioned", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		first := pendingReference(refcode.Generate(), campaignID, nil)
		second := pendingReference(refcode.Generate(), campaignID, nil)
		f.transfers.On("ListExpiredPending", ctx, mock.AnythingOfType("time.Time")).
			Return([]model.BankTransferReference{*first, *second}, nil)
		f.transfers.On("MarkExpired", ctx, first.ID).Return(true, nil)
		f.transfers.On("MarkExpired", ctx, second.ID).Return(false, nil)

		count, err := f.service.ExpireOverdue(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, []string{event.ChannelBankTransferExpired}, f.publisher.channels())
	})

	t.Run("nothing overdue means a quiet sweep", func(t *testing.T) {
		f := newBankTransferServiceFixture()
		f.transfers.On("ListExpiredPending", ctx, mock.AnythingOfType("time.Time")).
			Return([]model.BankTransferReference{}, nil)

		count, err := f.service.ExpireOverdue(ctx)

		assert.NoError(t, err)
		assert.Zero(t, count)
	})
}
