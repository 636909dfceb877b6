package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// SessionRepository persists payment sessions (carts).
type SessionRepository interface {
	Create(ctx context.Context, session *model.PaymentSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentSession, error)

	// GetPendingByUser returns the user's single pending session, (nil, nil)
	// when there is none.
	GetPendingByUser(ctx context.Context, userID uuid.UUID) (*model.PaymentSession, error)

	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error

	// CompleteIfPending transitions PENDING -> COMPLETED.
	CompleteIfPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// ExpireIfPending transitions PENDING -> EXPIRED.
	ExpireIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	// ListExpiredPending returns pending sessions whose expiry passed.
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.PaymentSession, error)
}
