package product

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestProduct(stock int, manageStock bool) *Product {
	return NewProduct("Mechanical Keyboard", "KB-001", decimal.RequireFromString("10.00"), decimal.NullDecimal{}, stock, manageStock)
}

func TestNewProduct(t *testing.T) {
	p := newTestProduct(5, true)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsActive)
	assert.True(t, p.InStock)

	empty := newTestProduct(0, true)
	assert.False(t, empty.InStock)

	unmanaged := newTestProduct(0, false)
	assert.True(t, unmanaged.InStock, "不管理库存的商品始终有货")
}

func TestProduct_CheckPurchasable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Product)
		qty     int
		wantErr error
	}{
		{"ok", func(p *Product) {}, 2, nil},
		{"inactive", func(p *Product) { p.IsActive = false }, 1, ErrProductUnavailable},
		{"out of stock", func(p *Product) { p.InStock = false }, 1, ErrProductOutOfStock},
		{"insufficient", func(p *Product) {}, 6, ErrInsufficientStock},
		{"unmanaged ignores quantity", func(p *Product) { p.ManageStock = false }, 100, nil},
		// 已下架优先于库存校验
		{"inactive and out of stock", func(p *Product) { p.IsActive = false; p.InStock = false }, 1, ErrProductUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProduct(5, true)
			tt.mutate(p)

			err := p.CheckPurchasable(tt.qty)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), "Mechanical Keyboard")
		})
	}
}

func TestProduct_Helpers(t *testing.T) {
	p := newTestProduct(3, true)
	assert.Equal(t, "", p.FirstImage())
	p.Images = []string{"a.jpg", "b.jpg"}
	assert.Equal(t, "a.jpg", p.FirstImage())

	assert.True(t, p.IsLowStock())
	p.StockQuantity = 10
	assert.False(t, p.IsLowStock())
}

func TestInventoryLog(t *testing.T) {
	deduct := NewDeductLog("p-1", "o-1", 2, 3)
	assert.Equal(t, ChangeTypeDeduct, deduct.ChangeType)
	assert.Equal(t, -2, deduct.Quantity)
	assert.Equal(t, 5, deduct.BeforeStock)
	assert.Equal(t, 3, deduct.AfterStock)

	release := NewReleaseLog("p-1", "o-1", 2, 5, "order cancelled")
	assert.Equal(t, ChangeTypeRelease, release.ChangeType)
	assert.Equal(t, 2, release.Quantity)
	assert.Equal(t, 3, release.BeforeStock)
	assert.Equal(t, "order cancelled", release.Remark)
}
