package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/loopware/billing-webhook/internal/domain/model"
	"github.com/loopware/billing-webhook/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type shopRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *gorm.DB, logger *zap.Logger) repository.ShopRepository {
	return &shopRepository{
		db:     db,
		logger: logger,
	}
}

// GetByPlanCode retrieves the shop whose plan code matches
func (r *shopRepository) GetByPlanCode(ctx context.Context, planCode string) (*model.Shop, error) {
	var shop model.Shop

	err := r.db.WithContext(ctx).
		Where("plan_code = ?", planCode).
		First(&shop).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get shop by plan code",
			zap.String("plan_code", planCode),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return &shop, nil
}
