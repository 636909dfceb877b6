package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/provider"
)

// MockDonationRepository is a mock implementation of DonationRepository
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *model.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) CompleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) FailIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) MarkRefundRequested(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) MarkRefundProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) LinkTransaction(ctx context.Context, id uuid.UUID, transactionID uuid.UUID) error {
	args := m.Called(ctx, id, transactionID)
	return args.Error(0)
}

func (m *MockDonationRepository) AttachToSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) DetachFromSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) DetachAllFromSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockDonationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Donation, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]model.Donation), args.Error(1)
}

func (m *MockDonationRepository) SumPendingBySession(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDonationRepository) ListByDonor(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	args := m.Called(ctx, donorID, limit, offset)
	return args.Get(0).([]model.Donation), args.Error(1)
}

func (m *MockDonationRepository) ListPublicDonors(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]model.Donation, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	return args.Get(0).([]model.Donation), args.Error(1)
}

// MockCampaignRepository is a mock implementation of CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) IncrementDonationStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockSettingRepository is a mock implementation of SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) GetByKey(ctx context.Context, key string) (*model.SystemSetting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SystemSetting), args.Error(1)
}

// MockReceiptRepository is a mock implementation of ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *model.DonationReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.DonationReceipt, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DonationReceipt), args.Error(1)
}

func (m *MockReceiptRepository) NextSequenceForYear(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockBankTransferRepository is a mock implementation of BankTransferRepository
type MockBankTransferRepository struct {
	mock.Mock
}

func (m *MockBankTransferRepository) Create(ctx context.Context, reference *model.BankTransferReference) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

func (m *MockBankTransferRepository) GetByCode(ctx context.Context, code string) (*model.BankTransferReference, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankTransferReference), args.Error(1)
}

func (m *MockBankTransferRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankTransferRepository) MarkMatched(ctx context.Context, id uuid.UUID, donationID uuid.UUID, senderName, senderIBAN string) (bool, error) {
	args := m.Called(ctx, id, donationID, senderName, senderIBAN)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankTransferRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankTransferRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankTransferRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]model.BankTransferReference, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]model.BankTransferReference), args.Error(1)
}

func (m *MockBankTransferRepository) ListPendingByDonor(ctx context.Context, donorID uuid.UUID) ([]model.BankTransferReference, error) {
	args := m.Called(ctx, donorID)
	return args.Get(0).([]model.BankTransferReference), args.Error(1)
}

// MockBankAccountRepository is a mock implementation of BankAccountRepository
type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) FirstForOrganization(ctx context.Context, organizationID uuid.UUID) (*model.OrganizationBankAccount, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrganizationBankAccount), args.Error(1)
}

// MockRecurringRepository is a mock implementation of RecurringRepository
type MockRecurringRepository struct {
	mock.Mock
}

func (m *MockRecurringRepository) Create(ctx context.Context, rd *model.RecurringDonation) error {
	args := m.Called(ctx, rd)
	return args.Error(0)
}

func (m *MockRecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringDonation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecurringDonation), args.Error(1)
}

func (m *MockRecurringRepository) Update(ctx context.Context, rd *model.RecurringDonation) error {
	args := m.Called(ctx, rd)
	return args.Error(0)
}

func (m *MockRecurringRepository) ListDue(ctx context.Context, date time.Time) ([]model.RecurringDonation, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]model.RecurringDonation), args.Error(1)
}

func (m *MockRecurringRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.RecurringDonation, error) {
	args := m.Called(ctx, donorID)
	return args.Get(0).([]model.RecurringDonation), args.Error(1)
}

func (m *MockRecurringRepository) RecordSuccess(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paidAt, nextDate time.Time) error {
	args := m.Called(ctx, id, amount, paidAt, nextDate)
	return args.Error(0)
}

func (m *MockRecurringRepository) IncrementFailure(ctx context.Context, id uuid.UUID, errorMessage string) (int, error) {
	args := m.Called(ctx, id, errorMessage)
	return args.Int(0), args.Error(1)
}

func (m *MockRecurringRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to model.RecurringStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecurringRepository) SetNextPaymentDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	args := m.Called(ctx, id, date)
	return args.Error(0)
}

func (m *MockRecurringRepository) FillCardToken(ctx context.Context, donorID uuid.UUID, token string) error {
	args := m.Called(ctx, donorID, token)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *model.PaymentSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockSessionRepository) GetPendingByUser(ctx context.Context, userID uuid.UUID) (*model.PaymentSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockSessionRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *MockSessionRepository) CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.PaymentSession, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]model.PaymentSession), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkRefunded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) (bool, error) {
	args := m.Called(ctx, id, amount, at)
	return args.Bool(0), args.Error(1)
}

// MockGateway is a mock implementation of the payment gateway port
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) Charge(ctx context.Context, req *provider.ChargeRequest) (*provider.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

func (m *MockGateway) Initialize3DS(ctx context.Context, req *provider.ChargeRequest) (*provider.ThreeDSInitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ThreeDSInitResult), args.Error(1)
}

func (m *MockGateway) Complete3DS(ctx context.Context, providerPaymentID, conversationID string) (*provider.ChargeResult, error) {
	args := m.Called(ctx, providerPaymentID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.RefundResult), args.Error(1)
}

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Channel string
	Payload interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Channel: channel, Payload: payload})
	return nil
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	channels := make([]string, 0, len(p.events))
	for _, e := range p.events {
		channels = append(channels, e.Channel)
	}
	return channels
}
