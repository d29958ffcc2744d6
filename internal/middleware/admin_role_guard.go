package middleware

import (
	"github.com/labstack/echo/v4"
)

// 管理画面はADMINだけ。AuthJWTの後に置く。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			if !actor.IsAdmin() {
				return forbidden(c, "admin only")
			}
			return next(c)
		}
	}
}
