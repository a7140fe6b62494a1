package database

import (
	"github.com/loopware/billing-webhook/internal/adapter/repository"
	domainRepo "github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	SignupAttempt domainRepo.SignupAttemptRepository
	Subscription  domainRepo.SubscriptionRepository
	Shop          domainRepo.ShopRepository
	WebhookEvent  domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		SignupAttempt: repository.NewSignupAttemptRepository(db, logger),
		Subscription:  repository.NewSubscriptionRepository(db, logger),
		Shop:          repository.NewShopRepository(db, logger),
		WebhookEvent:  repository.NewWebhookEventRepository(db, logger),
	}
}
