package repository

import (
	"context"

	"github.com/loopware/billing-webhook/internal/domain/model"
)

type ShopRepository interface {
	GetByPlanCode(ctx context.Context, planCode string) (*model.Shop, error)
}
