package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seffafbagis/donation-platform/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Campaign{},
		&model.OrganizationBankAccount{},
		&model.Donation{},
		&model.Transaction{},
		&model.DonationReceipt{},
		&model.BankTransferReference{},
		&model.RecurringDonation{},
		&model.PaymentSession{},
		&model.SystemSetting{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func createExtensions(db *gorm.DB) error {
	// gen_random_uuid() ships with pgcrypto on Postgres < 13.
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// createCustomIndexes creates indexes GORM tags cannot express.
func createCustomIndexes(db *gorm.DB) error {
	// One pending session per user.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_pending_session_per_user ON payment_sessions (user_id) WHERE status = 'PENDING'`).Error; err != nil {
		return err
	}

	// Sweep scans touch pending rows only.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_bank_transfer_refs_pending_expiry ON bank_transfer_references (expires_at) WHERE status = 'pending'`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_recurring_due ON recurring_donations (next_payment_date) WHERE status = 'active'`).Error; err != nil {
		return err
	}

	return nil
}
