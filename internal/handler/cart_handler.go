package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP（ログイン不要、セッション単位）
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart, /cart/{product_id} を登録
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:product_id", h.patchItem)
	g.DELETE("/:product_id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	sid, ok := getSessionID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	out, err := h.uc.View(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	sid, ok := getSessionID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}

	out, err := h.uc.AddIncremental(c.Request().Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 数量の上書き（0なら削除）
func (h *CartHandler) patchItem(c echo.Context) error {
	sid, ok := getSessionID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid product_id", "product_id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}

	out, err := h.uc.SetExact(c.Request().Context(), sid, productID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	sid, ok := getSessionID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid product_id", "product_id")
	}

	out, err := h.uc.Remove(c.Request().Context(), sid, productID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
