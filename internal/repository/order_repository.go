package repository

import (
	"context"

	"shoppingmall/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Order, error)
	// pendingの注文だけをpaidへ遷移させる。対象が無ければErrNotFound
	MarkPaid(ctx context.Context, orderID string, paymentKey string) error
	// pendingの注文だけをfailedへ遷移させる。対象が無ければErrNotFound
	MarkFailed(ctx context.Context, orderID string) error
}
