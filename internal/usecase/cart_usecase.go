package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"shoppingmall/internal/domain/model"
	repo "shoppingmall/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ローカル永続化のキー。クライアントIDを連結する
const cartStorageKeyPrefix = "shoppingmall_cart:"

// カート本体。productIdをキーに一意で、追加順を保つ。
// 合計は常に明細から再計算し、別に持たない。
type Cart struct {
	Lines []model.CartLine `json:"items"`
}

func (c Cart) TotalItems() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Quantity
	}
	return sum
}

func (c Cart) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Product.Price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return sum
}

// CartUsecase はクライアント側カートの唯一の所有者。
// すべての変更はここを通り、成功した変更は返却前に必ず永続化される。
type CartUsecase struct {
	storage     repo.CartStorage
	productRepo repo.ProductRepository
	log         zerolog.Logger
}

// DI
func NewCartUsecase(storage repo.CartStorage, productRepo repo.ProductRepository, log zerolog.Logger) *CartUsecase {
	return &CartUsecase{
		storage:     storage,
		productRepo: productRepo,
		log:         log.With().Str("component", "cart").Logger(),
	}
}

// Load は永続化済みカートを読み込む。
// スナップショットが欠けた明細は商品を取り直し、見つからない明細は
// 落として続行する（ロード全体は失敗させない）。壊れたデータは空扱い。
func (u *CartUsecase) Load(ctx context.Context, clientID string) (Cart, error) {
	lines := u.loadLines(ctx, clientID)

	reconciled := make([]model.CartLine, 0, len(lines))
	dropped := false

	for _, line := range lines {
		if line.Quantity <= 0 {
			dropped = true
			continue
		}

		if line.Product.ID != "" {
			reconciled = append(reconciled, line)
			continue
		}

		// スナップショット欠落分だけ取り直す
		p, err := u.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			u.log.Warn().Err(err).Str("product_id", line.ProductID).Msg("dropping unresolvable cart line")
			dropped = true
			continue
		}
		line.Product = p
		reconciled = append(reconciled, line)
	}

	cart := Cart{Lines: reconciled}

	// 落とした明細がある場合は整合後の形で保存し直す
	if dropped {
		if err := u.persist(ctx, clientID, cart); err != nil {
			return Cart{}, err
		}
	}
	return cart, nil
}

// Add はカートへ追加（同一商品は数量加算）。
// 在庫を超える場合は何も変更せず、許容最大数を伝える。
func (u *CartUsecase) Add(ctx context.Context, clientID string, product model.Product, quantity int64) (Cart, error) {
	if quantity < 1 {
		return Cart{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart := Cart{Lines: u.loadLines(ctx, clientID)}

	idx := findLine(cart.Lines, product.ID)
	if idx >= 0 {
		newQty := cart.Lines[idx].Quantity + quantity
		if newQty > product.Stock {
			return Cart{}, outOfStockError(product.Stock)
		}
		cart.Lines[idx].Quantity = newQty
	} else {
		if quantity > product.Stock {
			return Cart{}, outOfStockError(product.Stock)
		}
		cart.Lines = append(cart.Lines, model.CartLine{
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   product,
		})
	}

	if err := u.persist(ctx, clientID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Remove は明細を削除する。無ければno-op（エラーにしない）。
func (u *CartUsecase) Remove(ctx context.Context, clientID string, productID string) (Cart, error) {
	cart := Cart{Lines: u.loadLines(ctx, clientID)}

	idx := findLine(cart.Lines, productID)
	if idx < 0 {
		return cart, nil
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)

	if err := u.persist(ctx, clientID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// UpdateQuantity は数量変更。0以下はRemoveと等価。
// 在庫超過は拒否して現状維持。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, clientID string, productID string, quantity int64) (Cart, error) {
	if quantity <= 0 {
		return u.Remove(ctx, clientID, productID)
	}

	cart := Cart{Lines: u.loadLines(ctx, clientID)}

	idx := findLine(cart.Lines, productID)
	if idx < 0 {
		return cart, nil
	}

	if quantity > cart.Lines[idx].Product.Stock {
		return Cart{}, outOfStockError(cart.Lines[idx].Product.Stock)
	}

	cart.Lines[idx].Quantity = quantity

	if err := u.persist(ctx, clientID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Clear はカートを空にして保存する。
func (u *CartUsecase) Clear(ctx context.Context, clientID string) (Cart, error) {
	cart := Cart{Lines: []model.CartLine{}}
	if err := u.persist(ctx, clientID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// 永続化済みの明細を読む。壊れたJSONやストレージ障害は空カート扱い
func (u *CartUsecase) loadLines(ctx context.Context, clientID string) []model.CartLine {
	raw, found, err := u.storage.Get(ctx, cartStorageKeyPrefix+clientID)
	if err != nil {
		u.log.Error().Err(err).Msg("cart storage read failed")
		return []model.CartLine{}
	}
	if !found {
		return []model.CartLine{}
	}

	var lines []model.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		u.log.Warn().Err(err).Msg("malformed cart snapshot, treating as empty")
		return []model.CartLine{}
	}
	return lines
}

// スナップショット込みで全明細を保存する。失敗はそのまま表に出す
func (u *CartUsecase) persist(ctx context.Context, clientID string, cart Cart) error {
	raw, err := json.Marshal(cart.Lines)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart save failed")
	}
	if err := u.storage.Set(ctx, cartStorageKeyPrefix+clientID, string(raw)); err != nil {
		u.log.Error().Err(err).Msg("cart storage write failed")
		return NewHTTPError(http.StatusInternalServerError, "cart save failed")
	}
	return nil
}

func findLine(lines []model.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func outOfStockError(stock int64) error {
	return NewHTTPError(http.StatusConflict, fmt.Sprintf("재고가 부족합니다. (최대 %d개)", stock))
}
