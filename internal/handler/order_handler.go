package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	uc       *usecase.OrderUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, uc: uc}
}

type OrderCreateRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.PATCH("/:id/cancel", h.cancel)
}

// チェックアウト。冪等キーはカート自身が持つのでヘッダーは不要。
func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}
	sid, ok := getSessionID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}

	out, err := h.checkout.Checkout(c.Request().Context(), sid, actor, usecase.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	page, limit, err := parsePaging(c)
	if err != nil {
		return badRequest(c, err.Error(), "")
	}

	out, err := h.uc.ListMine(c.Request().Context(), actor, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	out, err := h.uc.GetMine(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	out, err := h.uc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type pagingError string

func (e pagingError) Error() string { return string(e) }

func parsePaging(c echo.Context) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return 0, 0, pagingError("invalid page")
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			return 0, 0, pagingError("invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}
