package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/payment"
	repo "shoppingmall/internal/repository"
	"shoppingmall/internal/validator"

	"github.com/rs/zerolog"
)

// 成功コールバックにorderId/paymentKeyが無い。呼び出し側はホームへ戻す
var ErrMissingCallbackParams = errors.New("missing orderId or paymentKey in callback")

// 注文IDを作る約束。外部ストアのID形式（UUID）を満たすこと
type IDGenerator interface {
	NewID() string
}

// CheckoutUsecase は1回のチェックアウトを
// 検証 → 注文の事前登録 → ウィジェット決済要求 の順で進める。
// ウィジェットはクライアントごとに1試行分だけ持ち、決済要求後に手放す。
// 決済確認はプロセス外（リダイレクト復帰）で起きるため、
// 終端状態の真実はメモリではなく注文行のstatusに置く。
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	provider  payment.Provider
	idGen     IDGenerator
	clientKey string
	baseURL   string
	log       zerolog.Logger

	mu      sync.Mutex
	widgets map[string]*payment.Controller
}

// DI
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	provider payment.Provider,
	idGen IDGenerator,
	clientKey string,
	baseURL string,
	log zerolog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		provider:  provider,
		idGen:     idGen,
		clientKey: clientKey,
		baseURL:   baseURL,
		log:       log.With().Str("component", "checkout").Logger(),
		widgets:   map[string]*payment.Controller{},
	}
}

// クライアントの進行中試行のウィジェット。無ければ作る
func (u *CheckoutUsecase) widgetFor(clientID string) *payment.Controller {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.widgets[clientID]
	if !ok {
		c = payment.NewController(u.provider, u.log)
		u.widgets[clientID] = c
	}
	return c
}

// 試行終了。外したコントローラを返す（無ければnil）
func (u *CheckoutUsecase) releaseWidget(clientID string) *payment.Controller {
	u.mu.Lock()
	defer u.mu.Unlock()
	c := u.widgets[clientID]
	delete(u.widgets, clientID)
	return c
}

// PrepareWidget はこのクライアントの試行のウィジェットを初期化し、
// 決済金額をこの時点のカート合計で固定する。以後カートは凍結される前提
// （呼び出し側の規律）。同一試行内の重複初期化は成功no-op。
func (u *CheckoutUsecase) PrepareWidget(ctx context.Context, clientID string, cart Cart) error {
	if len(cart.Lines) == 0 {
		return NewHTTPError(http.StatusBadRequest, "장바구니가 비어있습니다.")
	}

	err := u.widgetFor(clientID).Init(ctx, u.clientKey, payment.Amount{
		Currency: "KRW",
		Value:    cart.TotalPrice(),
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrMissingClientKey):
		// 設定エラーはブロッキングメッセージとして表に出す
		return NewHTTPError(http.StatusInternalServerError, "결제위젯 연동 키가 설정되지 않았습니다.")
	case errors.Is(err, payment.ErrInvalidClientKey):
		return NewHTTPError(http.StatusInternalServerError, "결제위젯 연동 키가 올바르지 않습니다.")
	default:
		u.log.Error().Err(err).Msg("widget init failed")
		return NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

type PayInput struct {
	Form validator.OrderForm
	// カート画面経由ではない直接遷移の明示フラグ
	FromCart bool
	// HTTP層がリクエストのJWTから解決したユーザー。nilならゲスト注文
	UserID *string
}

type PayOutput struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// Pay は決済を開始する。
// 注文(pending)と注文明細は1トランザクションで先に永続化され、
// そのコミット後に初めてウィジェットへ決済要求する（happens-before）。
// ブラウザが戻らなくても注文の記録は必ず残る。
// 決済要求が出た試行のウィジェットは手放し、次の試行は再初期化で
// 金額を取り直す。
func (u *CheckoutUsecase) Pay(ctx context.Context, clientID string, cart Cart, in PayInput) (PayOutput, error) {
	if len(cart.Lines) == 0 {
		return PayOutput{}, NewHTTPError(http.StatusBadRequest, "장바구니가 비어있습니다.")
	}

	// 逐次検証。最初に失敗したフィールドのメッセージだけ返す
	if err := validator.ValidateOrderForm(in.Form); err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			return PayOutput{}, NewHTTPError(http.StatusBadRequest, ve.Message)
		}
		return PayOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	handle, ok := u.widgetFor(clientID).Handle()
	if !ok {
		return PayOutput{}, NewHTTPError(http.StatusConflict, "결제 위젯이 준비되지 않았습니다.")
	}

	orderID := u.idGen.NewID()

	now := time.Now()
	total := cart.TotalPrice()

	// 注文と明細は原子的に書く。片方だけ残る状態は作らない
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Create(ctx, model.Order{
			ID:          orderID,
			UserID:      in.UserID,
			TotalAmount: total,
			Status:      model.OrderStatusPending,
			PaymentKey:  nil,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				// 現時点のスナップショット価格で確定
				Price:     line.Product.Price,
				CreatedAt: now,
			})
		}
		return r.OrderItems().CreateBulk(ctx, orderID, items)
	})
	if err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Msg("order pre-registration failed")
		return PayOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// ここからは中断点。リダイレクト先から先は別プロセスの復帰になる。
	// 成功復帰がカートを特定できるよう、戻りURLにカートキーを載せる
	redirectURL, err := handle.RequestPayment(ctx, payment.Request{
		OrderID:             orderID,
		OrderName:           orderName(cart.Lines),
		SuccessURL:          u.baseURL + "/checkout/success?cartKey=" + url.QueryEscape(clientID),
		FailURL:             u.baseURL + "/checkout/fail",
		CustomerName:        in.Form.CustomerName,
		CustomerEmail:       in.Form.CustomerEmail,
		CustomerMobilePhone: in.Form.CustomerPhone,
	})
	if err != nil {
		// 注文はpendingのまま残る。決済エラーはそのまま表に出す。
		// ウィジェットは生きたままなので同じ試行で再要求できる
		u.log.Error().Err(err).Str("order_id", orderID).Msg("payment request failed")
		return PayOutput{}, NewHTTPError(http.StatusBadGateway, err.Error())
	}

	// 制御はプロバイダ側ページへ移った。この試行のウィジェットは終わり。
	// 破棄はしない（ホスト側セッションはブラウザ側で続いている）
	u.releaseWidget(clientID)

	return PayOutput{OrderID: orderID, RedirectURL: redirectURL}, nil
}

// HandleSuccess は成功コールバック。orderIdとpaymentKeyの両方が必須で、
// 欠けていれば何も書かずにErrMissingCallbackParamsを返す。
// pending → paid の遷移だけを許し、paidは二度と動かさない。
func (u *CheckoutUsecase) HandleSuccess(ctx context.Context, orderID string, paymentKey string) error {
	if orderID == "" || paymentKey == "" {
		return ErrMissingCallbackParams
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		markErr := r.Orders().MarkPaid(ctx, orderID, paymentKey)
		if !errors.Is(markErr, repo.ErrNotFound) {
			return markErr
		}

		// 対象行が無い: 既に終端か、未知の注文かを区別する
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if o.Status == model.OrderStatusPaid {
			// コールバック再実行。冪等に成功扱い
			return nil
		}
		return NewHTTPError(http.StatusConflict, "invalid order state")
	})

	if err != nil {
		if he, ok := AsHTTPError(err); ok {
			return he
		}
		// 更新失敗は報告するが、外部決済自体は取り消さない
		u.log.Error().Err(err).Str("order_id", orderID).Msg("order status update failed")
		return NewHTTPError(http.StatusInternalServerError, "주문 상태 업데이트에 실패했습니다.")
	}
	return nil
}

type FailInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

// HandleFail は失敗コールバック。プロバイダのコード/メッセージを表示用に
// 返しつつ、注文が特定できれば pending → failed へ落とす。
// 遷移の失敗は記録だけして表示は続行する。
func (u *CheckoutUsecase) HandleFail(ctx context.Context, in FailInfo) FailInfo {
	if in.OrderID != "" {
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			return r.Orders().MarkFailed(ctx, in.OrderID)
		})
		if errors.Is(err, repo.ErrNotFound) {
			// 既に終端か未知の注文。上書きはしない
			u.log.Debug().Str("order_id", in.OrderID).Msg("fail callback for non-pending order")
		} else if err != nil {
			u.log.Error().Err(err).Str("order_id", in.OrderID).Msg("order fail transition failed")
		}
	}

	if in.Message == "" {
		in.Message = "결제 처리 중 오류가 발생했습니다."
	}
	return in
}

// Close はこのクライアントの試行のウィジェットを破棄する（ベストエフォート）。
func (u *CheckoutUsecase) Close(ctx context.Context, clientID string) {
	if c := u.releaseWidget(clientID); c != nil {
		c.Close(ctx)
	}
}

// 注文名。単品は商品名、複数は「<先頭商品> 외 N건」
func orderName(lines []model.CartLine) string {
	if len(lines) == 1 {
		return lines[0].Product.Name
	}
	return fmt.Sprintf("%s 외 %d건", lines[0].Product.Name, len(lines)-1)
}
