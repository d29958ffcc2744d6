package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products/{id}/reviews
type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type PurchasedResponse struct {
	ProductID int64 `json:"product_id"`
	Purchased bool  `json:"purchased"`
}

// 一覧は公開。投稿と購入確認はauthを通す。
func (h *ReviewHandler) RegisterRoutes(g *echo.Group, auth ...echo.MiddlewareFunc) {
	g.GET("/:id/reviews", h.list)
	g.POST("/:id/reviews", h.submit, auth...)
	g.GET("/:id/purchased", h.purchased, auth...)
}

func (h *ReviewHandler) list(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	out, err := h.uc.ListReviews(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) submit(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	var req SubmitReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body", "")
	}

	out, err := h.uc.SubmitReview(c.Request().Context(), actor, productID, usecase.SubmitReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) purchased(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id", "id")
	}

	ok, err = h.uc.HasPurchased(c.Request().Context(), actor.UserID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, PurchasedResponse{ProductID: productID, Purchased: ok})
}
