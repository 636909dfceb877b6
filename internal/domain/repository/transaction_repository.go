package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// TransactionRepository persists gateway audit records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.Transaction, error)

	// MarkRefunded records the refund bookkeeping, guarded on the
	// transaction still being in the success state.
	MarkRefunded(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) (bool, error)
}

// ReceiptRepository persists donation receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.DonationReceipt) error
	GetByDonationID(ctx context.Context, donationID uuid.UUID) (*model.DonationReceipt, error)

	// NextSequenceForYear returns the next receipt sequence for a year.
	NextSequenceForYear(ctx context.Context, year int) (int64, error)
}
