package repository

import (
	"context"
	"errors"

	"shoppingmall/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品一覧の検索条件
type ProductListQuery struct {
	// 0以下なら全カテゴリ
	CategoryID int64
}

type ProductRepository interface {
	// created_at降順で返す
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, productID string) (model.Product, error)
}
