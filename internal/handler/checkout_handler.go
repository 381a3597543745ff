package handler

import (
	"errors"
	"net/http"

	"shoppingmall/internal/usecase"
	"shoppingmall/internal/validator"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutUC *usecase.CheckoutUsecase
	cartUC     *usecase.CartUsecase
}

// DI
func NewCheckoutHandler(checkoutUC *usecase.CheckoutUsecase, cartUC *usecase.CartUsecase) *CheckoutHandler {
	return &CheckoutHandler{checkoutUC: checkoutUC, cartUC: cartUC}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout/prepare", h.prepare)
	e.POST("/checkout/pay", h.pay)
	e.POST("/checkout/close", h.close)
	e.GET("/checkout/success", h.success)
	e.GET("/checkout/fail", h.fail)
}

// prepare はこのクライアントのウィジェットを初期化し、
// 金額を現在のカート合計で固定する。
func (h *CheckoutHandler) prepare(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	cart, err := h.cartUC.Load(c.Request().Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.checkoutUC.PrepareWidget(c.Request().Context(), clientID, cart); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_items": cart.TotalItems(),
		"total_price": cart.TotalPrice(),
	})
}

type payRequest struct {
	validator.OrderForm
	FromCart bool `json:"from_cart"`
}

func (h *CheckoutHandler) pay(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	var req payRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	cart, err := h.cartUC.Load(c.Request().Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}

	// 注文の帰属はこのリクエストのJWTだけから決める
	in := usecase.PayInput{Form: req.OrderForm, FromCart: req.FromCart}
	if id, ok := getUserIDFromContext(c); ok {
		in.UserID = &id
	}

	out, err := h.checkoutUC.Pay(c.Request().Context(), clientID, cart, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// close はチェックアウト画面を離れたクライアントのウィジェットを破棄する。
func (h *CheckoutHandler) close(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	h.checkoutUC.Close(c.Request().Context(), clientID)
	return c.NoContent(http.StatusNoContent)
}

// success は決済プロバイダからの成功リダイレクト。
// orderId/paymentKeyが欠けたアクセスはホームへ戻すだけで何も変更しない。
func (h *CheckoutHandler) success(c echo.Context) error {
	orderID := c.QueryParam("orderId")
	paymentKey := c.QueryParam("paymentKey")

	err := h.checkoutUC.HandleSuccess(c.Request().Context(), orderID, paymentKey)
	if errors.Is(err, usecase.ErrMissingCallbackParams) {
		return c.Redirect(http.StatusFound, "/")
	}
	if err != nil {
		return writeError(c, err)
	}

	// リダイレクトGETは認証もカートキーヘッダも運ばないため、
	// Payが戻りURLに載せたcartKeyでカートを特定して空にする（ベストエフォート）
	cartKey := c.QueryParam("cartKey")
	if cartKey == "" {
		if clientID, ok := cartClientID(c); ok {
			cartKey = clientID
		}
	}
	if cartKey != "" {
		if _, err := h.cartUC.Clear(c.Request().Context(), cartKey); err != nil {
			c.Logger().Warnf("cart clear after checkout failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"order_id": orderID,
		"status":   "paid",
	})
}

// fail は失敗リダイレクト。表示用のコード/メッセージをそのまま返す。
func (h *CheckoutHandler) fail(c echo.Context) error {
	info := h.checkoutUC.HandleFail(c.Request().Context(), usecase.FailInfo{
		Code:    c.QueryParam("code"),
		Message: c.QueryParam("message"),
		OrderID: c.QueryParam("orderId"),
	})
	return c.JSON(http.StatusOK, info)
}
