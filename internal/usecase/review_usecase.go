package usecase

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const maxReviewCommentLength = 2000

type ReviewUsecase struct {
	tx repo.TransactionManager
}

func NewReviewUsecase(tx repo.TransactionManager) *ReviewUsecase {
	return &ReviewUsecase{tx: tx}
}

type SubmitReviewInput struct {
	Rating  int
	Comment string
}

// HasPurchased はキャンセル以外の注文にその商品があるか。
func (u *ReviewUsecase) HasPurchased(ctx context.Context, userID int64, productID int64) (bool, error) {
	if userID <= 0 || productID <= 0 {
		return false, nil
	}

	var purchased bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		purchased, err = r.Orders().HasPurchased(ctx, userID, productID)
		if err != nil {
			return storageErr("has purchased", err)
		}
		return nil
	})
	if err != nil {
		return false, storageErr("has purchased", err)
	}
	return purchased, nil
}

// SubmitReview は購入済みのユーザーだけ。同じ商品なら上書き。
func (u *ReviewUsecase) SubmitReview(ctx context.Context, actor model.Actor, productID int64, in SubmitReviewInput) (model.Review, error) {
	if actor.UserID <= 0 {
		return model.Review{}, ErrUnauthorized
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, ErrInvalidRating
	}
	comment := strings.TrimSpace(in.Comment)
	if rs := []rune(comment); len(rs) > maxReviewCommentLength {
		comment = string(rs[:maxReviewCommentLength])
	}

	review := model.Review{
		ProductID: productID,
		UserID:    actor.UserID,
		Rating:    in.Rating,
		Comment:   comment,
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return storageErr("find product", err)
		}

		purchased, err := r.Orders().HasPurchased(ctx, actor.UserID, productID)
		if err != nil {
			return storageErr("has purchased", err)
		}
		if !purchased {
			return ErrForbidden
		}

		if err := r.Reviews().Upsert(ctx, &review); err != nil {
			return storageErr("upsert review", err)
		}

		// 上書き時は作成日時などがDB側の値なので読み直す
		stored, err := r.Reviews().FindByProductAndUser(ctx, productID, actor.UserID)
		if err != nil {
			return storageErr("find review", err)
		}
		review = stored
		return nil
	})
	if err != nil {
		return model.Review{}, storageErr("submit review", err)
	}
	return review, nil
}

func (u *ReviewUsecase) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	var reviews []model.Review
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return storageErr("find product", err)
		}
		var err error
		reviews, err = r.Reviews().ListByProductID(ctx, productID)
		if err != nil {
			return storageErr("list reviews", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list reviews", err)
	}
	return reviews, nil
}
