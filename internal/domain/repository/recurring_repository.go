package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// RecurringRepository persists donor subscriptions and their schedule
// bookkeeping.
type RecurringRepository interface {
	Create(ctx context.Context, rd *model.RecurringDonation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringDonation, error)
	Update(ctx context.Context, rd *model.RecurringDonation) error

	// ListDue returns active subscriptions with next_payment_date <= date.
	ListDue(ctx context.Context, date time.Time) ([]model.RecurringDonation, error)

	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.RecurringDonation, error)

	// RecordSuccess applies one successful cycle: last payment date, running
	// total, payment count, failure-count reset and the next due date, in a
	// single update.
	RecordSuccess(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paidAt, nextDate time.Time) error

	// IncrementFailure bumps the failure streak and returns the new count.
	IncrementFailure(ctx context.Context, id uuid.UUID, errorMessage string) (int, error)

	// UpdateStatusIf transitions from -> to and reports whether it won.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to model.RecurringStatus) (bool, error)

	SetNextPaymentDate(ctx context.Context, id uuid.UUID, date time.Time) error

	// FillCardToken stores a gateway card token on the donor's token-less
	// subscriptions (3DS side channel).
	FillCardToken(ctx context.Context, donorID uuid.UUID, token string) error
}
