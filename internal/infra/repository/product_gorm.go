package repository

import (
	"context"
	"errors"

	"shoppingmall/internal/domain/model"
	repo "shoppingmall/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 新着順で一覧取得。カテゴリ指定があれば絞り込む
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	query := r.db.WithContext(ctx).Order("created_at desc")

	if q.CategoryID > 0 {
		query = query.Where("category_id = ?", q.CategoryID)
	}

	var items []model.Product
	if err := query.Find(&items).Error; err != nil {
		return []model.Product{}, err
	}
	return items, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, productID string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", productID).First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}
