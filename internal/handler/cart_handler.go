package handler

import (
	"net/http"

	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// カートキーヘッダ。未ログインクライアントはこれで自分のカートを指す
const cartKeyHeader = "X-Cart-Key"

type CartHandler struct {
	cartUC    *usecase.CartUsecase
	productUC *usecase.ProductUsecase
}

// DI
func NewCartHandler(cartUC *usecase.CartUsecase, productUC *usecase.ProductUsecase) *CartHandler {
	return &CartHandler{cartUC: cartUC, productUC: productUC}
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cart", h.get)
	e.POST("/cart/items", h.add)
	e.PATCH("/cart/items/:productId", h.updateQuantity)
	e.DELETE("/cart/items/:productId", h.remove)
	e.DELETE("/cart", h.clear)
}

// ログインユーザーはユーザーID、ゲストはヘッダのキーでカートを特定する
func cartClientID(c echo.Context) (string, bool) {
	if id, ok := getUserIDFromContext(c); ok {
		return id, true
	}
	if key := c.Request().Header.Get(cartKeyHeader); key != "" {
		return key, true
	}
	return "", false
}

type cartResponse struct {
	Items      []model.CartLine `json:"items"`
	TotalItems int64            `json:"total_items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

func toCartResponse(cart usecase.Cart) cartResponse {
	return cartResponse{
		Items:      cart.Lines,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

func (h *CartHandler) get(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	cart, err := h.cartUC.Load(c.Request().Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

func (h *CartHandler) add(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	// スナップショットは追加時点のカタログから取る
	product, err := h.productUC.GetProductDetail(c.Request().Context(), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.cartUC.Add(c.Request().Context(), clientID, product, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *CartHandler) updateQuantity(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	cart, err := h.cartUC.UpdateQuantity(c.Request().Context(), clientID, c.Param("productId"), req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) remove(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	cart, err := h.cartUC.Remove(c.Request().Context(), clientID, c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) clear(c echo.Context) error {
	clientID, ok := cartClientID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing cart key"})
	}

	cart, err := h.cartUC.Clear(c.Request().Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}
