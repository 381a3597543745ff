package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"shoppingmall/internal/domain/model"
	repo "shoppingmall/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ProdRepoMock struct{ mock.Mock }

func (m *ProdRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProdRepoMock) FindByID(ctx context.Context, productID string) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func TestProductUsecase_ListProducts_Success(t *testing.T) {
	pRepo := new(ProdRepoMock)
	pRepo.On("List", mock.Anything, repo.ProductListQuery{CategoryID: 2}).
		Return([]model.Product{testProduct("p1", 10000, 5)}, nil)

	uc := NewProductUsecase(pRepo, zerolog.Nop())

	items, err := uc.ListProducts(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(items))
	pRepo.AssertExpectations(t)
}

// ストア障害でも一覧ビューは壊さず空を返す
func TestProductUsecase_ListProducts_StoreFailureReturnsEmpty(t *testing.T) {
	pRepo := new(ProdRepoMock)
	pRepo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	uc := NewProductUsecase(pRepo, zerolog.Nop())

	items, err := uc.ListProducts(context.Background(), 0)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestProductUsecase_GetProductDetail_Success(t *testing.T) {
	pRepo := new(ProdRepoMock)
	pRepo.On("FindByID", mock.Anything, "p1").Return(testProduct("p1", 10000, 5), nil)

	uc := NewProductUsecase(pRepo, zerolog.Nop())

	p, err := uc.GetProductDetail(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestProductUsecase_GetProductDetail_NotFound(t *testing.T) {
	pRepo := new(ProdRepoMock)
	pRepo.On("FindByID", mock.Anything, "missing").Return(model.Product{}, repo.ErrNotFound)

	uc := NewProductUsecase(pRepo, zerolog.Nop())

	_, err := uc.GetProductDetail(context.Background(), "missing")
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestProductUsecase_GetProductDetail_StoreFailure(t *testing.T) {
	pRepo := new(ProdRepoMock)
	pRepo.On("FindByID", mock.Anything, "p1").Return(model.Product{}, errors.New("db down"))

	uc := NewProductUsecase(pRepo, zerolog.Nop())

	_, err := uc.GetProductDetail(context.Background(), "p1")
	assertHTTPError(t, err, http.StatusInternalServerError, "db error")
}
