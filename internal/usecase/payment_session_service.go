package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
	"github.com/seffafbagis/donation-platform/internal/domain/repository"
	"github.com/seffafbagis/donation-platform/pkg/errors"
)

// SessionService aggregates multiple pending donations into a single
// checkout. The session total is derived from the linked donations and
// recomputed after every membership change.
type SessionService struct {
	sessionRepo  repository.SessionRepository
	donationRepo repository.DonationRepository
	donations    *DonationService
	logger       *zap.Logger
}

// NewSessionService creates a new payment session service instance
func NewSessionService(
	sessionRepo repository.SessionRepository,
	donationRepo repository.DonationRepository,
	donations *DonationService,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		donationRepo: donationRepo,
		donations:    donations,
		logger:       logger,
	}
}

// GetOrCreate returns the user's open cart, creating one when none exists.
// A user has at most one pending session at a time.
func (s *SessionService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.PaymentSession, error) {
	session, err := s.sessionRepo.GetPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &model.PaymentSession{
		UserID:    userID,
		Status:    model.SessionStatusPending,
		Currency:  "TRY",
		ExpiresAt: time.Now().Add(model.SessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Payment session created",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", userID.String()))
	return session, nil
}

// Get returns a session with its donations.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*model.PaymentSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("payment session not found")
	}
	return session, nil
}

// AddDonation links the user's pending donation into their open cart. A
// donation already in a cart, or no longer pending, is rejected.
func (s *SessionService) AddDonation(ctx context.Context, userID, donationID uuid.UUID) (*model.PaymentSession, error) {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.NotFound("donation not found")
	}
	if donation.DonorID == nil || *donation.DonorID != userID {
		return nil, errors.Forbidden("donation does not belong to this user")
	}

	session, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	won, err := s.donationRepo.AttachToSession(ctx, donationID, session.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errors.Conflict("donation is not pending or already in a session")
	}

	if err := s.recomputeTotal(ctx, session.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, session.ID)
}

// RemoveDonation unlinks a donation from the user's cart. The donation
// itself survives as a standalone pending donation.
func (s *SessionService) RemoveDonation(ctx context.Context, userID, sessionID, donationID uuid.UUID) (*model.PaymentSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, errors.Forbidden("session does not belong to this user")
	}
	if session.Status != model.SessionStatusPending {
		return nil, errors.Conflict("session is not pending")
	}

	won, err := s.donationRepo.DetachFromSession(ctx, donationID, sessionID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errors.Validation("donation is not in this session")
	}

	if err := s.recomputeTotal(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// Complete transitions the cart to COMPLETED after a successful aggregate
// charge and completes every donation still pending inside it. Only the
// winning caller does the member completions.
func (s *SessionService) Complete(ctx context.Context, sessionID uuid.UUID) (*model.PaymentSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	won, err := s.sessionRepo.CompleteIfPending(ctx, sessionID, time.Now())
	if err != nil {
		return nil, err
	}
	if !won {
		if session.Status == model.SessionStatusCompleted {
			return session, nil
		}
		return nil, errors.Conflict("session is not pending")
	}

	members, err := s.donationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, donation := range members {
		if donation.Status != model.DonationStatusPending {
			continue
		}
		if _, err := s.donations.CompleteDonation(ctx, donation.ID); err != nil {
			s.logger.Error("Failed to complete session donation",
				zap.String("session_id", sessionID.String()),
				zap.String("donation_id", donation.ID.String()),
				zap.Error(err))
		}
	}

	return s.Get(ctx, sessionID)
}

// ExpireStale sweeps pending sessions past their TTL. Member donations are
// returned to the standalone lifecycle, not cancelled.
func (s *SessionService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.sessionRepo.ListExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, session := range stale {
		won, err := s.sessionRepo.ExpireIfPending(ctx, session.ID)
		if err != nil {
			s.logger.Error("Failed to expire session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		if !won {
			continue
		}
		if err := s.donationRepo.DetachAllFromSession(ctx, session.ID); err != nil {
			s.logger.Error("Failed to detach donations from expired session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired stale payment sessions", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *SessionService) recomputeTotal(ctx context.Context, sessionID uuid.UUID) error {
	total, err := s.donationRepo.SumPendingBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.sessionRepo.UpdateTotal(ctx, sessionID, total)
}
