package repository

import (
	"context"

	"shoppingmall/internal/domain/model"
)

type OrderItemRepository interface {
	// Orderと同一トランザクション内で一括作成する
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
}
