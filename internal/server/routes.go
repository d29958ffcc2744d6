package server

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	session := middleware.Session(d.Sessions, d.Config.CartTTL, d.Log)
	authJWT := middleware.AuthJWT(d.Config)
	tokenVersion := middleware.TokenVersionGuard(d.Users)

	//カートはログイン不要
	cart := e.Group("/cart", session)
	d.Cart.RegisterRoutes(cart)

	//チェックアウトはセッションのカートとログインユーザーの両方が要る
	orders := e.Group("/orders", session, authJWT, tokenVersion)
	d.Orders.RegisterRoutes(orders)

	admin := e.Group("/admin", authJWT, tokenVersion, middleware.AdminRoleGuard())
	d.AdminOrders.RegisterRoutes(admin)

	products := e.Group("/products")
	d.Reviews.RegisterRoutes(products, authJWT, tokenVersion)
}
