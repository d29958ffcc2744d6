package usecase

import (
	"context"
	"errors"
	"iter"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase はセッション単位のカート。
// 変更のたびにセッションストアへ保存する（期限も延びる）。
// Tokenはカートの版。注文の冪等キーになる。
type CartUsecase struct {
	sessions repo.CartSessionRepository
	products repo.ProductRepository
	ids      IDGenerator
}

func NewCartUsecase(
	sessions repo.CartSessionRepository,
	products repo.ProductRepository,
	ids IDGenerator,
) *CartUsecase {
	return &CartUsecase{
		sessions: sessions,
		products: products,
		ids:      ids,
	}
}

// カタログと突き合わせた明細
type CartEntry struct {
	Product   model.Product
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	Total     string `json:"total"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total string             `json:"total"`
	Count int64              `json:"count"`
}

func (u *CartUsecase) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	if sessionID == "" {
		return model.Cart{}, ErrUnauthorized
	}
	cart, err := u.sessions.Load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, storageErr("load cart", err)
	}
	return cart, nil
}

// View はカートの表示用データ（非公開・削除済みの商品は出さない）。
func (u *CartUsecase) View(ctx context.Context, sessionID string) (CartResponse, error) {
	cart, err := u.Load(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart)
}

// AddIncremental はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddIncremental(ctx context.Context, sessionID string, productID int64, qty int64) (CartResponse, error) {
	if qty < 1 {
		return CartResponse{}, ErrInvalidQuantity
	}

	p, cart, err := u.prepare(ctx, sessionID, productID)
	if err != nil {
		return CartResponse{}, err
	}

	var existing int64
	if l, ok := cart.Line(productID); ok {
		existing = l.Quantity
	}
	if existing+qty > p.Stock {
		return CartResponse{}, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Requested: existing + qty, Available: p.Stock}
	}

	// unit_price_snapshot は「追加時点の価格」
	if err := cart.AddIncremental(productID, qty, p.Price); err != nil {
		return CartResponse{}, err
	}
	return u.save(ctx, sessionID, cart)
}

// SetExact は数量を上書き。0なら削除。
func (u *CartUsecase) SetExact(ctx context.Context, sessionID string, productID int64, qty int64) (CartResponse, error) {
	if qty < 0 {
		return CartResponse{}, ErrInvalidQuantity
	}
	if qty == 0 {
		return u.Remove(ctx, sessionID, productID)
	}

	p, cart, err := u.prepare(ctx, sessionID, productID)
	if err != nil {
		return CartResponse{}, err
	}
	if qty > p.Stock {
		return CartResponse{}, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Requested: qty, Available: p.Stock}
	}

	if err := cart.SetExact(productID, qty, p.Price); err != nil {
		return CartResponse{}, err
	}
	return u.save(ctx, sessionID, cart)
}

// 無い商品を消してもエラーにしない
func (u *CartUsecase) Remove(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	cart, err := u.Load(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	cart.Remove(productID)
	return u.save(ctx, sessionID, cart)
}

// チェックアウト成功後にだけ呼ぶ
func (u *CartUsecase) Clear(ctx context.Context, sessionID string) error {
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return storageErr("clear cart", err)
	}
	return nil
}

// Iterate は明細をカタログと突き合わせながら返す。
// rangeするたびに商品を読み直す。無い・非公開の商品は黙って飛ばす。
func (u *CartUsecase) Iterate(ctx context.Context, cart model.Cart) iter.Seq2[CartEntry, error] {
	return func(yield func(CartEntry, error) bool) {
		if cart.IsEmpty() {
			return
		}
		products, err := u.products.FindByIDs(ctx, cart.ProductIDs())
		if err != nil {
			yield(CartEntry{}, storageErr("load products", err))
			return
		}
		for e := range joinCart(cart, products) {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// 明細合計の和（小数2桁）
func (u *CartUsecase) Total(ctx context.Context, cart model.Cart) (decimal.Decimal, error) {
	total := decimal.Zero
	for e, err := range u.Iterate(ctx, cart) {
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(e.LineTotal)
	}
	return total.Round(2), nil
}

// バッジ用の数量合計
func (u *CartUsecase) Size(ctx context.Context, sessionID string) (int64, error) {
	cart, err := u.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return cart.Size(), nil
}

func (u *CartUsecase) prepare(ctx context.Context, sessionID string, productID int64) (model.Product, model.Cart, error) {
	if productID <= 0 {
		return model.Product{}, model.Cart{}, ErrProductUnavailable
	}

	// 商品チェック（公開のみ）
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, model.Cart{}, ErrProductUnavailable
	}
	if err != nil {
		return model.Product{}, model.Cart{}, storageErr("find product", err)
	}
	if !p.Purchasable() {
		return model.Product{}, model.Cart{}, ErrProductUnavailable
	}

	cart, err := u.Load(ctx, sessionID)
	if err != nil {
		return model.Product{}, model.Cart{}, err
	}
	return p, cart, nil
}

// 変更のたびにトークンを振り直す。トークンが同じなら明細も同じ。
func (u *CartUsecase) save(ctx context.Context, sessionID string, cart model.Cart) (CartResponse, error) {
	cart.Token = ""
	if !cart.IsEmpty() {
		cart.Token = u.ids.NewID()
	}
	if err := u.sessions.Save(ctx, sessionID, cart); err != nil {
		return CartResponse{}, storageErr("save cart", err)
	}
	return u.buildCartResponse(ctx, cart)
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, cart model.Cart) (CartResponse, error) {
	resp := CartResponse{Items: make([]CartItemResponse, 0, len(cart.Lines))}
	total := decimal.Zero

	for e, err := range u.Iterate(ctx, cart) {
		if err != nil {
			return CartResponse{}, err
		}
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID: e.Product.ID,
			Name:      e.Product.Name,
			Price:     e.UnitPrice.StringFixed(2),
			Quantity:  e.Quantity,
			Total:     e.LineTotal.StringFixed(2),
		})
		total = total.Add(e.LineTotal)
		resp.Count += e.Quantity
	}

	resp.Total = total.StringFixed(2)
	return resp, nil
}

// カートの順番のまま、存在して公開中の商品だけ返す
func joinCart(cart model.Cart, products []model.Product) iter.Seq[CartEntry] {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return func(yield func(CartEntry) bool) {
		for _, l := range cart.Lines {
			p, ok := byID[l.ProductID]
			if !ok || !p.IsActive {
				continue
			}
			e := CartEntry{
				Product:   p,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPriceSnapshot,
				LineTotal: l.UnitPriceSnapshot.Mul(decimal.NewFromInt(l.Quantity)),
			}
			if !yield(e) {
				return
			}
		}
	}
}
