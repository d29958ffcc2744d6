package handler

import (
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// usecaseのエラーをHTTPに変換する（ここだけで行う）
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	status, body := toErrorResponse(err)
	return c.JSON(status, body)
}

func toErrorResponse(err error) (int, ErrorResponse) {
	var stockErr *usecase.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, ErrorResponse{
			Error:     err.Error(),
			Code:      "insufficient_stock",
			ProductID: stockErr.ProductID,
		}
	}

	var transErr *usecase.InvalidTransitionError
	if errors.As(err, &transErr) {
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "invalid_transition", Field: "status"}
	}

	switch {
	case errors.Is(err, usecase.ErrInsufficientStock):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "insufficient_stock"}
	case errors.Is(err, usecase.ErrInvalidTransition):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "invalid_transition", Field: "status"}
	case errors.Is(err, usecase.ErrEmptyCart):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "empty_cart"}
	case errors.Is(err, usecase.ErrInvalidQuantity):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_quantity", Field: "quantity"}
	case errors.Is(err, usecase.ErrInvalidShippingAddress):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_shipping_address", Field: "shipping_address"}
	case errors.Is(err, usecase.ErrInvalidRating):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_rating", Field: "rating"}
	case errors.Is(err, usecase.ErrInvalidStatus):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_status", Field: "status"}
	case errors.Is(err, usecase.ErrInvalidDateRange):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_date_range"}
	case errors.Is(err, usecase.ErrProductUnavailable):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "product_unavailable", Field: "product_id"}
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "unauthorized"}
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden", Code: "forbidden"}
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"}
	case errors.Is(err, usecase.ErrStorageFailure):
		// 中身（SQLなど）は返さない
		return http.StatusServiceUnavailable, ErrorResponse{Error: "storage failure", Code: "storage_failure", Retryable: true}
	}

	//500
	return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"}
}

func badRequest(c echo.Context, msg string, field string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request", Field: field})
}

func getActor(c echo.Context) (model.Actor, bool) {
	return middleware.ActorFromContext(c)
}

func getSessionID(c echo.Context) (string, bool) {
	return middleware.SessionIDFromContext(c)
}
