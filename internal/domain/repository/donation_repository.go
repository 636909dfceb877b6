package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// DonationRepository persists the ledger's canonical donation records.
// Lookups return (nil, nil) when the row does not exist; the guarded
// transition methods report whether this caller won the transition.
type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error)

	// CompleteIfPending performs the PENDING -> COMPLETED transition as a
	// single guarded update and reports whether it took effect. A false
	// return with no error means another caller already moved the row.
	CompleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	// FailIfPending performs the PENDING -> FAILED transition.
	FailIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkRefundRequested flips refund status none -> requested, guarded on
	// the donation being COMPLETED with no prior refund activity.
	MarkRefundRequested(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)

	// MarkRefundProcessed flips refund status requested -> processed.
	MarkRefundProcessed(ctx context.Context, id uuid.UUID) (bool, error)

	LinkTransaction(ctx context.Context, id uuid.UUID, transactionID uuid.UUID) error

	// AttachToSession links a pending, unattached donation to a session.
	AttachToSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error)

	// DetachFromSession unlinks a donation from the given session.
	DetachFromSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (bool, error)

	// DetachAllFromSession returns every donation of a session to the
	// standalone lifecycle (sweep path; donations are not cancelled).
	DetachAllFromSession(ctx context.Context, sessionID uuid.UUID) error

	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Donation, error)

	// SumPendingBySession recomputes the derived session total.
	SumPendingBySession(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error)

	ListByDonor(ctx context.Context, donorID uuid.UUID, limit, offset int) ([]model.Donation, error)

	// ListPublicDonors returns completed, non-anonymous donations for the
	// campaign's public donor list.
	ListPublicDonors(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]model.Donation, error)
}
