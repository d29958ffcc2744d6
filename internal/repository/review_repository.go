package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	// (product_id, user_id) が同じなら上書き
	Upsert(ctx context.Context, review *model.Review) error
	FindByProductAndUser(ctx context.Context, productID int64, userID int64) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
}
