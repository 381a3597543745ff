package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
)

// Controller は1回のチェックアウトにつき1つのウィジェットを管理する。
// 再入マウント対策として {uninitialized, initializing, ready} の
// 三状態で多重初期化を防ぐ。boolフラグ1つでは初期化中の再入を弾けない。
type Controller struct {
	provider Provider
	log      zerolog.Logger

	mu     sync.Mutex
	st     state
	handle Handle
	amount Amount
}

func NewController(provider Provider, log zerolog.Logger) *Controller {
	return &Controller{
		provider: provider,
		log:      log.With().Str("component", "payment_widget").Logger(),
	}
}

// Init はウィジェットを初期化して金額を固定する。
// 既にready、または初期化中なら成功no-op（重複初期化はエラーにしない）。
// 金額は初期化時点で確定し、以後カートが変わっても再同期しない。
func (c *Controller) Init(ctx context.Context, clientKey string, amount Amount) error {
	c.mu.Lock()
	switch c.st {
	case stateReady, stateInitializing:
		c.mu.Unlock()
		return nil
	}
	c.st = stateInitializing
	c.mu.Unlock()

	handle, err := c.setup(ctx, clientKey, amount)
	if err != nil {
		c.mu.Lock()
		c.st = stateUninitialized
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.handle = handle
	c.amount = amount
	c.st = stateReady
	c.mu.Unlock()
	return nil
}

func (c *Controller) setup(ctx context.Context, clientKey string, amount Amount) (Handle, error) {
	if clientKey == "" {
		return nil, ErrMissingClientKey
	}

	handle, err := c.provider.Init(ctx, clientKey)
	if err != nil {
		return nil, err
	}

	if err := handle.SetAmount(ctx, amount); err != nil {
		return nil, err
	}

	// 重複レンダリングは「既に生きたウィジェットがある」ことなので成功扱い
	if err := handle.RenderPaymentMethods(ctx, "payment-method"); err != nil && !errors.Is(err, ErrDuplicateWidget) {
		return nil, err
	}
	if err := handle.RenderAgreement(ctx, "agreement"); err != nil && !errors.Is(err, ErrDuplicateWidget) {
		return nil, err
	}

	return handle, nil
}

// Ready ならウィジェットのHandleを返す
func (c *Controller) Handle() (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateReady {
		return nil, false
	}
	return c.handle, true
}

// Amount は初期化時に固定した金額を返す
func (c *Controller) Amount() (Amount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateReady {
		return Amount{}, false
	}
	return c.amount, true
}

// Close はウィジェットを破棄する。ベストエフォートで、失敗はログのみ。
// 制御が既にプロセス外へ出ている可能性があるため伝播させない。
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.st = stateUninitialized
	c.mu.Unlock()

	if handle == nil {
		return
	}
	if err := handle.Destroy(ctx); err != nil {
		c.log.Warn().Err(err).Msg("widget destroy failed")
	}
}
