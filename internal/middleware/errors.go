package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handlerのエラー形式とそろえる
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"})
}

func forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, errorBody{Error: msg, Code: "forbidden"})
}

func unavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "storage temporarily unavailable", Code: "storage_failure", Retryable: true})
}
