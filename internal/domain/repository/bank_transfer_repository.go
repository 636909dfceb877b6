package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// BankTransferRepository persists reference codes. All transitions out of
// pending are guarded updates so a sweep racing a user action produces at
// most one effective transition.
type BankTransferRepository interface {
	Create(ctx context.Context, reference *model.BankTransferReference) error
	GetByCode(ctx context.Context, code string) (*model.BankTransferReference, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// MarkMatched transitions pending -> matched and links the donation
	// created from the received transfer.
	MarkMatched(ctx context.Context, id uuid.UUID, donationID uuid.UUID, senderName, senderIBAN string) (bool, error)

	// MarkExpired transitions pending -> expired.
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkCancelled transitions pending -> cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)

	// ListExpiredPending returns pending references whose expiry passed.
	ListExpiredPending(ctx context.Context, now time.Time) ([]model.BankTransferReference, error)

	ListPendingByDonor(ctx context.Context, donorID uuid.UUID) ([]model.BankTransferReference, error)
}

// BankAccountRepository reads the organization's receiving accounts.
type BankAccountRepository interface {
	// FirstForOrganization returns the primary account, or the oldest
	// active one when no primary is flagged; (nil, nil) when none exist.
	FirstForOrganization(ctx context.Context, organizationID uuid.UUID) (*model.OrganizationBankAccount, error)
}
