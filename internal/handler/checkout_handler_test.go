package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/infra/cartstorage"
	"shoppingmall/internal/payment"
	repo "shoppingmall/internal/repository"
	"shoppingmall/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =====================
// Fakes
// =====================

type productRepoStub struct{}

func (productRepoStub) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	return nil, nil
}

func (productRepoStub) FindByID(ctx context.Context, productID string) (model.Product, error) {
	return model.Product{}, repo.ErrNotFound
}

// 呼び出しを記録する注文リポジトリ
type orderRepoRecorder struct {
	markedPaid   []string
	markedFailed []string
}

func (r *orderRepoRecorder) Create(ctx context.Context, order model.Order) error { return nil }

func (r *orderRepoRecorder) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	return model.Order{}, repo.ErrNotFound
}

func (r *orderRepoRecorder) ListByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	return nil, nil
}

func (r *orderRepoRecorder) MarkPaid(ctx context.Context, orderID string, paymentKey string) error {
	r.markedPaid = append(r.markedPaid, orderID)
	return nil
}

func (r *orderRepoRecorder) MarkFailed(ctx context.Context, orderID string) error {
	r.markedFailed = append(r.markedFailed, orderID)
	return nil
}

type orderItemRepoStub struct{}

func (orderItemRepoStub) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	return nil
}

func (orderItemRepoStub) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	return nil, nil
}

type txReposStub struct {
	orders     *orderRepoRecorder
	orderItems orderItemRepoStub
}

func (s txReposStub) Orders() repo.OrderRepository         { return s.orders }
func (s txReposStub) OrderItems() repo.OrderItemRepository { return s.orderItems }

type txManagerStub struct{ repos txReposStub }

func (s txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s.repos)
}

type widgetProviderStub struct{}

func (widgetProviderStub) Init(ctx context.Context, clientKey string) (payment.Handle, error) {
	return nil, payment.ErrInvalidClientKey
}

type idGenStub struct{}

func (idGenStub) NewID() string { return "order-uuid-1" }

type checkoutHandlerFixture struct {
	e       *echo.Echo
	storage *cartstorage.MemoryStorage
	orders  *orderRepoRecorder
}

func newCheckoutHandlerFixture(t *testing.T) *checkoutHandlerFixture {
	t.Helper()

	storage := cartstorage.NewMemoryStorage()
	orders := &orderRepoRecorder{}
	tx := txManagerStub{repos: txReposStub{orders: orders}}

	cartUC := usecase.NewCartUsecase(storage, productRepoStub{}, zerolog.Nop())
	checkoutUC := usecase.NewCheckoutUsecase(tx, widgetProviderStub{}, idGenStub{}, "test_ck_abc", "https://shop.example.com", zerolog.Nop())

	e := echo.New()
	NewCheckoutHandler(checkoutUC, cartUC).RegisterRoutes(e)

	return &checkoutHandlerFixture{e: e, storage: storage, orders: orders}
}

func seedCart(t *testing.T, storage *cartstorage.MemoryStorage, clientID string) {
	t.Helper()

	lines := []model.CartLine{{
		ProductID: "p1",
		Quantity:  2,
		Product: model.Product{
			ID:    "p1",
			Name:  "상품-p1",
			Price: decimal.NewFromInt(10000),
			Stock: 5,
		},
	}}
	raw, err := json.Marshal(lines)
	assert.NoError(t, err)
	assert.NoError(t, storage.Set(context.Background(), "shoppingmall_cart:"+clientID, string(raw)))
}

// =====================
// Tests
// =====================

// 必須パラメータ欠落の成功リダイレクトはホームへ戻すだけで何も変更しない
func TestCheckoutHandler_Success_MissingParams_RedirectsHome(t *testing.T) {
	f := newCheckoutHandlerFixture(t)
	seedCart(t, f.storage, "guest-1")

	req := httptest.NewRequest(http.MethodGet, "/checkout/success?paymentKey=pk", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	// 注文もカートも触らない
	assert.Empty(t, f.orders.markedPaid)
	raw, found, err := f.storage.Get(context.Background(), "shoppingmall_cart:guest-1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.NotEqual(t, "[]", raw)
}

// 成功リダイレクトは認証もカートキーヘッダも運ばない。
// URLのcartKeyだけでカートを特定して空にできること
func TestCheckoutHandler_Success_ClearsCartByURLKey(t *testing.T) {
	f := newCheckoutHandlerFixture(t)
	seedCart(t, f.storage, "guest-1")

	req := httptest.NewRequest(http.MethodGet, "/checkout/success?orderId=order-1&paymentKey=pk&cartKey=guest-1", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"order-1"}, f.orders.markedPaid)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paid", body["status"])
	assert.Equal(t, "order-1", body["order_id"])

	raw, found, err := f.storage.Get(context.Background(), "shoppingmall_cart:guest-1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", raw)
}

// cartKey無しの成功復帰でも注文確定は妨げない。カートはそのまま残る
func TestCheckoutHandler_Success_NoCartKey_StillMarksPaid(t *testing.T) {
	f := newCheckoutHandlerFixture(t)
	seedCart(t, f.storage, "guest-1")

	req := httptest.NewRequest(http.MethodGet, "/checkout/success?orderId=order-1&paymentKey=pk", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"order-1"}, f.orders.markedPaid)

	raw, _, _ := f.storage.Get(context.Background(), "shoppingmall_cart:guest-1")
	assert.NotEqual(t, "[]", raw)
}

// 失敗リダイレクトは表示用メッセージを返しつつ注文をfailedへ落とす
func TestCheckoutHandler_Fail_MarksOrderFailed(t *testing.T) {
	f := newCheckoutHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/checkout/fail?code=PAY_PROCESS_CANCELED&orderId=order-1", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"order-1"}, f.orders.markedFailed)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PAY_PROCESS_CANCELED", body["code"])
	assert.Equal(t, "결제 처리 중 오류가 발생했습니다.", body["message"])
}

// カートキーを運ばないprepareは弾く
func TestCheckoutHandler_Prepare_MissingCartKey(t *testing.T) {
	f := newCheckoutHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/checkout/prepare", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
