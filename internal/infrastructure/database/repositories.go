package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seffafbagis/donation-platform/internal/adapter/repository"
	domainRepo "github.com/seffafbagis/donation-platform/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Donation     domainRepo.DonationRepository
	BankTransfer domainRepo.BankTransferRepository
	BankAccount  domainRepo.BankAccountRepository
	Recurring    domainRepo.RecurringRepository
	Session      domainRepo.SessionRepository
	Transaction  domainRepo.TransactionRepository
	Receipt      domainRepo.ReceiptRepository
	Campaign     domainRepo.CampaignRepository
	User         domainRepo.UserRepository
	Setting      domainRepo.SettingRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Donation:     repository.NewDonationRepository(db, logger),
		BankTransfer: repository.NewBankTransferRepository(db, logger),
		BankAccount:  repository.NewBankAccountRepository(db, logger),
		Recurring:    repository.NewRecurringRepository(db, logger),
		Session:      repository.NewSessionRepository(db, logger),
		Transaction:  repository.NewTransactionRepository(db, logger),
		Receipt:      repository.NewReceiptRepository(db, logger),
		Campaign:     repository.NewCampaignRepository(db, logger),
		User:         repository.NewUserRepository(db, logger),
		Setting:      repository.NewSettingRepository(db, logger),
	}
}
