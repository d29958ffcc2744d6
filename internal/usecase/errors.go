package usecase

import (
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrForbidden              = errors.New("forbidden")
	ErrStorageFailure         = errors.New("storage failure")
	ErrNotFound               = errors.New("not found")
	ErrInvalidQuantity        = model.ErrInvalidQuantity
	ErrInvalidShippingAddress = errors.New("shipping address is required")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
	ErrProductUnavailable     = errors.New("product unavailable")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrInvalidDateRange       = errors.New("invalid date range")
)

// どの商品が足りないかを持つ
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type InvalidTransitionError struct {
	OrderID int64
	From    model.OrderStatus
	To      model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("order %d is already %s", e.OrderID, e.From)
	}
	return fmt.Sprintf("order %d: cannot change status from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// 永続化層の失敗。呼び出し側はやり直してよい。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

func (e *StorageError) Retryable() bool { return true }

// ドメインのエラーはそのまま、それ以外はStorageErrorで包む
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrInsufficientStock, ErrInvalidTransition, ErrForbidden,
		ErrNotFound, ErrInvalidQuantity, ErrInvalidShippingAddress, ErrInvalidRating,
		ErrProductUnavailable, ErrUnauthorized, ErrInvalidStatus, ErrInvalidDateRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
