package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

func TestCreateOrder_PricingScenario(t *testing.T) {
	f := newFixture(t)
	p1 := f.seedProduct(t, "Coffee Mug", "MUG-1", "10.00", "8.00", 5, true)

	item := line(p1.ID, 2)
	item.ClientPrice = decimal.NewNullDecimal(decimal.RequireFromString("0.01")) // 篡改的客户端价格
	result, err := f.create.Execute(context.Background(), f.request(item))
	require.NoError(t, err)

	assert.Equal(t, "16.00", result.Subtotal)
	assert.Equal(t, "1.28", result.TaxAmount)
	assert.Equal(t, "9.99", result.ShippingAmount)
	assert.Equal(t, "0.00", result.DiscountAmount)
	assert.Equal(t, "27.27", result.TotalAmount)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, "PENDING", result.PaymentStatus)
	assert.Equal(t, "card", result.PaymentMethod)
	assert.Regexp(t, `^ORD-\d{4}-[0-9A-Z]{10}$`, result.OrderNo)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "8.00", result.Items[0].Price, "使用服务端促销价,忽略客户端价格")
	assert.Equal(t, "16.00", result.Items[0].Total)
	assert.Equal(t, "MUG-1.jpg", result.Items[0].Details.Image)
	assert.Equal(t, "Acme", result.Items[0].Details.Brand)

	require.NotNil(t, result.Buyer)
	assert.Equal(t, f.buyer.Email, result.Buyer.Email)
	assert.Equal(t, "Springfield", result.ShippingAddress.City, "未填收货地址时使用账单地址")

	p := f.stockOf(t, p1.ID)
	assert.Equal(t, 3, p.StockQuantity)
	assert.Equal(t, 2, p.SalesCount)

	logs, err := f.logs.ListByOrderID(context.Background(), result.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, product.ChangeTypeDeduct, logs[0].ChangeType)
	assert.Equal(t, 5, logs[0].BeforeStock)
	assert.Equal(t, 3, logs[0].AfterStock)

	stored, err := f.orders.FindByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalsConsistent())

	assert.Equal(t, []string{order.EventOrderCreated}, f.events.types())
}

func TestCreateOrder_FreeShippingAndUnmanagedStock(t *testing.T) {
	f := newFixture(t)
	ebook := f.seedProduct(t, "E-Book", "EBOOK-1", "60.00", "", 0, false)

	result, err := f.create.Execute(context.Background(), f.request(line(ebook.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "0.00", result.ShippingAmount)
	assert.Equal(t, "64.80", result.TotalAmount)

	p := f.stockOf(t, ebook.ID)
	assert.Equal(t, 0, p.StockQuantity, "不管理库存的商品不扣减")
	assert.True(t, p.InStock)

	logs, err := f.logs.ListByOrderID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ok := f.seedProduct(t, "Spoon", "SPOON-1", "2.00", "", 10, true)
	inactive := f.seedProduct(t, "Old Fork", "FORK-1", "3.00", "", 10, true)
	require.NoError(t, f.db.Table("products").Where("id = ?", inactive.ID).Update("is_active", false).Error)
	soldOut := f.seedProduct(t, "Rare Plate", "PLATE-1", "9.00", "", 0, true)
	scarce := f.seedProduct(t, "Teapot", "TEAPOT-1", "20.00", "", 1, true)

	tests := []struct {
		name     string
		items    []apporder.CreateOrderItem
		sentinel error
		contains string
	}{
		{"product not found", []apporder.CreateOrderItem{line(ok.ID, 1), line("missing", 1)}, product.ErrProductNotFound, "missing"},
		{"product unavailable", []apporder.CreateOrderItem{line(ok.ID, 1), line(inactive.ID, 1)}, product.ErrProductUnavailable, "Old Fork"},
		{"out of stock", []apporder.CreateOrderItem{line(ok.ID, 1), line(soldOut.ID, 1)}, product.ErrProductOutOfStock, "Rare Plate"},
		{"insufficient stock", []apporder.CreateOrderItem{line(ok.ID, 1), line(scarce.ID, 2)}, product.ErrInsufficientStock, "Teapot"},
		{"same product twice sells out", []apporder.CreateOrderItem{line(scarce.ID, 1), line(scarce.ID, 1)}, product.ErrProductOutOfStock, "Teapot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(context.Background(), f.request(tt.items...))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, apperrors.GetAppError(err).Message, tt.contains, "错误信息应指出具体商品")

			// 原子性:第一行已扣减的库存必须回滚
			assert.Equal(t, 10, f.stockOf(t, ok.ID).StockQuantity)
			assert.Equal(t, 1, f.stockOf(t, scarce.ID).StockQuantity)
			assert.Equal(t, int64(0), f.orderCount(t))
		})
	}

	var logCount int64
	require.NoError(t, f.db.Table("inventory_logs").Count(&logCount).Error)
	assert.Equal(t, int64(0), logCount, "失败的下单不应留下库存流水")
	assert.Empty(t, f.events.types())
}

func TestCreateOrder_RequestValidation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Spoon", "SPOON-1", "2.00", "", 10, true)

	_, err := f.create.Execute(context.Background(), f.request())
	assert.True(t, errors.Is(err, order.ErrInvalidOrderItems))

	_, err = f.create.Execute(context.Background(), f.request(line(p.ID, 0)))
	assert.True(t, errors.Is(err, order.ErrInvalidQuantity))

	req := f.request(line(p.ID, 1))
	req.PaymentMethod = "cash"
	_, err = f.create.Execute(context.Background(), req)
	assert.True(t, errors.Is(err, order.ErrInvalidPaymentMethod))

	req = f.request(line(p.ID, 1))
	req.BillingAddress.City = ""
	_, err = f.create.Execute(context.Background(), req)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.GetAppError(err).Code)

	req = f.request(line(p.ID, 1))
	req.UserID = "ghost"
	_, err = f.create.Execute(context.Background(), req)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))

	assert.Equal(t, 10, f.stockOf(t, p.ID).StockQuantity)
}

func TestCreateOrder_ConcurrentCheckoutNoOversell(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Limited Print", "PRINT-1", "40.00", "", 2, true)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), f.request(line(p.ID, 2)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0], product.ErrInsufficientStock) || errors.Is(failures[0], product.ErrProductOutOfStock),
		"got %v", failures[0])
	assert.Equal(t, 0, f.stockOf(t, p.ID).StockQuantity)
	assert.Equal(t, int64(1), f.orderCount(t))
}

func TestCreateOrder_ManyBuyersNoOversell(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Hot Item", "HOT-1", "5.00", "", 7, true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.create.Execute(context.Background(), f.request(line(p.ID, 1))); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, sold)
	got := f.stockOf(t, p.ID)
	assert.Equal(t, 0, got.StockQuantity)
	assert.Equal(t, 7, got.SalesCount)
	assert.False(t, got.InStock)
}

// conflictingOrders 前n次Create返回订单号冲突
type conflictingOrders struct {
	order.Repository
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (r *conflictingOrders) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	r.calls++
	conflict := r.calls <= r.conflicts
	r.mu.Unlock()
	if conflict {
		return order.ErrOrderNoConflict
	}
	return r.Repository.Create(ctx, o)
}

func TestCreateOrder_OrderNoCollisionRetry(t *testing.T) {
	t.Run("重试后成功", func(t *testing.T) {
		f := newFixture(t)
		repo := &conflictingOrders{Repository: f.orders, conflicts: 2}
		f.buildUseCases(t, repo, 3)
		p := f.seedProduct(t, "Cup", "CUP-1", "4.00", "", 5, true)

		result, err := f.create.Execute(context.Background(), f.request(line(p.ID, 1)))
		require.NoError(t, err)
		assert.Equal(t, 3, repo.calls)
		assert.NotEmpty(t, result.OrderNo)
		assert.Equal(t, 4, f.stockOf(t, p.ID).StockQuantity)
	})

	t.Run("重试耗尽整单回滚", func(t *testing.T) {
		f := newFixture(t)
		repo := &conflictingOrders{Repository: f.orders, conflicts: 10}
		f.buildUseCases(t, repo, 1)
		p := f.seedProduct(t, "Cup", "CUP-1", "4.00", "", 5, true)

		_, err := f.create.Execute(context.Background(), f.request(line(p.ID, 1)))
		assert.True(t, errors.Is(err, order.ErrOrderNoConflict))
		assert.Equal(t, 2, repo.calls)
		assert.Equal(t, 5, f.stockOf(t, p.ID).StockQuantity)
	})
}

func TestCreateOrder_Idempotency(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Lamp", "LAMP-1", "30.00", "", 5, true)

	req := f.request(line(p.ID, 1))
	req.IdempotencyKey = "checkout-abc"

	first, err := f.create.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.create.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, f.stockOf(t, p.ID).StockQuantity, "重放请求不应再次扣减库存")
	assert.Equal(t, int64(1), f.orderCount(t))

	// 处理中的重复请求
	require.NoError(t, f.idem.Complete(context.Background(), f.buyer.ID, "in-flight", ""))
	req.IdempotencyKey = "in-flight"
	_, err = f.create.Execute(context.Background(), req)
	assert.True(t, errors.Is(err, apperrors.ErrRequestInProgress))

	// 失败的请求释放幂等键,可以重试
	req = f.request(line(p.ID, 99))
	req.IdempotencyKey = "too-many"
	_, err = f.create.Execute(context.Background(), req)
	require.Error(t, err)
	req.Items = []apporder.CreateOrderItem{line(p.ID, 1)}
	_, err = f.create.Execute(context.Background(), req)
	require.NoError(t, err)
}

func TestCreateOrder_PublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	p := f.seedProduct(t, "Bowl", "BOWL-1", "6.00", "", 5, true)

	_, err := f.create.Execute(context.Background(), f.request(line(p.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.orderCount(t))
}

func TestCreateOrder_StorageFailureIsTransactionAborted(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "Bowl", "BOWL-1", "6.00", "", 5, true)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.create.Execute(context.Background(), f.request(line(p.ID, 1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransactionAborted), "got %v", err)
	assert.Equal(t, apperrors.ErrCodeTransactionAborted, apperrors.GetAppError(err).Code)
}
