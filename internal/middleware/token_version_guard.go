package middleware

import (
	"errors"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard はJWTのtvとユーザーの現在のtoken_versionを比べる。
// 一致しない・無効化されたユーザーは401。ユーザーが引けないときは503。
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return unauthorized(c)
			}

			user, err := users.FindByID(c.Request().Context(), actor.UserID)
			if errors.Is(err, repository.ErrUserNotFound) {
				return unauthorized(c)
			}
			if err != nil {
				return unavailable(c)
			}
			if user == nil {
				return unauthorized(c)
			}

			if !user.IsActive || user.TokenVersion != tv {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}
