package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc     *usecase.AdminOrderUsecase
	orders *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, orders *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, orders: orders}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type ShipOrdersRequest struct {
	OrderIDs []int64 `json:"order_ids"`
}

func (h *AdminOrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/orders", h.list)
	g.PUT("/orders/:id/status", h.updateStatus)
	g.POST("/orders/ship", h.ship)
	g.POST("/orders/:id/recalc", h.recalc)
	g.GET("/orders/:id/history", h.history)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	page, limit, err := parsePaging(c)
	if err != nil {
		return badRequest(c, err.Error(), "")
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id", "user_id")
		}
		userID = &id
	}

	out, err := h.uc.List(c.Request().Context(), actor, usecase.AdminOrderListInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}

	//操作した管理者（監査ログ用）
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	out, err := h.uc.Transition(c.Request().Context(), actor, orderID, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// まとめて発送（全件成功か全件失敗）
func (h *AdminOrderHandler) ship(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	var req ShipOrdersRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}
	if len(req.OrderIDs) == 0 {
		return badRequest(c, "order_ids is required", "order_ids")
	}

	out, err := h.uc.Ship(c.Request().Context(), actor, req.OrderIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) recalc(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	out, err := h.orders.RecalcTotal(c.Request().Context(), actor, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) history(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	out, err := h.uc.History(c.Request().Context(), actor, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
