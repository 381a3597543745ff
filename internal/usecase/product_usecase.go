package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shoppingmall/internal/domain/model"
	repo "shoppingmall/internal/repository"

	"github.com/rs/zerolog"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ProductUsecase は商品カタログの読み取り専用クエリ。状態は持たない。
type ProductUsecase struct {
	productRepo repo.ProductRepository
	log         zerolog.Logger
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, log zerolog.Logger) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		log:         log.With().Str("component", "catalog").Logger(),
	}
}

// ListProducts は新着順の商品一覧。categoryID<=0なら全件。
// ストア障害時は空一覧に退避してビューを壊さない。
func (u *ProductUsecase) ListProducts(ctx context.Context, categoryID int64) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx, repo.ProductListQuery{CategoryID: categoryID})
	if err != nil {
		u.log.Error().Err(err).Int64("category_id", categoryID).Msg("product list failed")
		return []model.Product{}, nil
	}
	return items, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (model.Product, error) {
	if productID == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}
