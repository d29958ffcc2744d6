package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 数量の不変条件(1以上)を破る操作
var ErrInvalidQuantity = errors.New("invalid quantity")

// カートの明細
// 追加時点の価格を必ず保存。後から商品価格が変わっても更新しない。
type CartLine struct {
	ProductID         int64           `json:"product_id"`
	Quantity          int64           `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
}

// セッション単位のカート。
// Linesは最初に追加された順を保つ（チェックアウト時の検証順）。
type Cart struct {
	// 空のカートに最初の明細が入った時に採番される。注文の冪等キーになる。
	Token string     `json:"token,omitempty"`
	Lines []CartLine `json:"lines"`
}

// 同一商品は数量加算。無ければ価格スナップショット付きで作成。
func (c *Cart) AddIncremental(productID int64, qty int64, unitPrice decimal.Decimal) error {
	if i := c.index(productID); i >= 0 {
		newQty := c.Lines[i].Quantity + qty
		if newQty < 1 {
			return ErrInvalidQuantity
		}
		c.Lines[i].Quantity = newQty
		return nil
	}

	if qty < 1 {
		return ErrInvalidQuantity
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID:         productID,
		Quantity:          qty,
		UnitPriceSnapshot: unitPrice.Round(2),
	})
	return nil
}

// 数量を上書き。0は削除と同じ。
func (c *Cart) SetExact(productID int64, qty int64, unitPrice decimal.Decimal) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		c.Remove(productID)
		return nil
	}

	if i := c.index(productID); i >= 0 {
		c.Lines[i].Quantity = qty
		return nil
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID:         productID,
		Quantity:          qty,
		UnitPriceSnapshot: unitPrice.Round(2),
	})
	return nil
}

// 無ければ何もしない
func (c *Cart) Remove(productID int64) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	if len(c.Lines) == 0 {
		c.Token = ""
	}
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.Token = ""
}

// バッジ表示用。明細数ではなく数量の合計。
func (c Cart) Size() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Line(productID int64) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (c Cart) index(productID int64) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
