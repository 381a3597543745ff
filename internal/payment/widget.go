package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// 同一ターゲットに生きたウィジェットが既にある。良性として扱う
	ErrDuplicateWidget = errors.New("widget already rendered")
	// 連携キー未設定。決済経路は設定エラーとして報告する
	ErrMissingClientKey = errors.New("payment widget client key is not configured")
	// 連携キーがプロバイダに拒否された
	ErrInvalidClientKey = errors.New("payment widget client key is invalid")
)

type Amount struct {
	Currency string
	Value    decimal.Decimal
}

// requestPaymentに渡す内容。成功/失敗の戻りURLには注文IDで相関を取る
type Request struct {
	OrderID             string
	OrderName           string
	SuccessURL          string
	FailURL             string
	CustomerName        string
	CustomerEmail       string
	CustomerMobilePhone string
}

// ホスト型決済ウィジェット1インスタンス分の操作。
// RequestPaymentはブラウザをプロバイダ側ページへ離脱させる中断点で、
// 以後このプロセスでは続きのコードは実行されない前提。
type Handle interface {
	SetAmount(ctx context.Context, amount Amount) error
	RenderPaymentMethods(ctx context.Context, target string) error
	RenderAgreement(ctx context.Context, target string) error
	RequestPayment(ctx context.Context, req Request) (redirectURL string, err error)
	Destroy(ctx context.Context) error
}

// ウィジェットSDK相当。clientKeyからHandleを作る
type Provider interface {
	Init(ctx context.Context, clientKey string) (Handle, error)
}
