package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// ユーザー管理は外部。通知先とトークン検証に必要な参照だけ。
type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
