package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "sessionid"
	CtxSessionIDKey   = "session_id" // string
)

// カート用のセッションCookie。
// 無い・壊れているときは新しく発行し、あるときは期限を延ばす。
func Session(sessions repository.CartSessionRepository, ttl time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(SessionCookieName); err == nil {
				if _, err := uuid.Parse(ck.Value); err == nil {
					sid = ck.Value
				}
			}

			if sid == "" {
				sid = uuid.NewString()
			} else if err := sessions.ExpireAfter(c.Request().Context(), sid, ttl); err != nil {
				//延長できなくてもリクエストは通す
				log.WarnContext(c.Request().Context(), "extend session", "err", err)
			}

			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(CtxSessionIDKey, sid)

			return next(c)
		}
	}
}

func SessionIDFromContext(c echo.Context) (string, bool) {
	sid, ok := c.Get(CtxSessionIDKey).(string)
	return sid, ok && sid != ""
}
