package order_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/testutil"
)

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []order.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memIdempotency 内存幂等键存储
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]string)}
}

func (m *memIdempotency) Reserve(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if v, ok := m.keys[k]; ok {
		return v, false, nil
	}
	m.keys[k] = ""
	return "", true, nil
}

func (m *memIdempotency) Complete(_ context.Context, scope, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[scope+":"+key] = orderID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+":"+key)
	return nil
}

type fixture struct {
	db        *gorm.DB
	products  product.Repository
	logs      product.InventoryLogRepository
	orders    order.Repository
	users     user.Repository
	txManager *mysql.TxManager
	events    *recordingPublisher
	idem      *memIdempotency

	create *apporder.CreateOrderUseCase
	cancel *apporder.CancelOrderUseCase
	update *apporder.UpdateOrderStatusUseCase

	buyer *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		products:  mysql.NewProductRepository(db),
		logs:      mysql.NewInventoryLogRepository(db),
		orders:    mysql.NewOrderRepository(db),
		users:     mysql.NewUserRepository(db),
		txManager: mysql.NewTxManager(db),
		events:    &recordingPublisher{},
		idem:      newMemIdempotency(),
	}
	f.buildUseCases(t, f.orders, 3)
	f.buyer = f.seedUser(t, "buyer@example.com", "Buyer One")
	return f
}

func (f *fixture) buildUseCases(t *testing.T, orders order.Repository, retries int) {
	logger := zaptest.NewLogger(t)
	policy := pricing.NewPolicy(pricing.DefaultConfig())
	f.create = apporder.NewCreateOrderUseCase(orders, f.products, f.logs, f.users, policy, f.txManager,
		f.events, f.idem, apporder.CreateOrderConfig{OrderNoPrefix: "ORD-", OrderNoRetries: retries}, logger)
	f.cancel = apporder.NewCancelOrderUseCase(orders, f.products, f.logs, f.txManager, f.events, logger)
	f.update = apporder.NewUpdateOrderStatusUseCase(orders, f.products, f.logs, f.txManager, f.events, logger)
}

func (f *fixture) seedUser(t *testing.T, email, name string) *user.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := user.NewUser(email, string(hashed), name, "")
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) seedProduct(t *testing.T, name, sku, price, salePrice string, stock int, manageStock bool) *product.Product {
	t.Helper()
	sale := decimal.NullDecimal{}
	if salePrice != "" {
		sale = decimal.NewNullDecimal(decimal.RequireFromString(salePrice))
	}
	p := product.NewProduct(name, sku, decimal.RequireFromString(price), sale, stock, manageStock)
	p.CategoryName = "Kitchen"
	p.BrandName = "Acme"
	p.Images = []string{sku + ".jpg"}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stockOf(t *testing.T, id string) *product.Product {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&mysql.OrderModel{}).Count(&n).Error)
	return n
}

func address() order.Address {
	return order.Address{
		Name:         "Buyer One",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		PostalCode:   "12345",
		Country:      "US",
	}
}

func (f *fixture) request(items ...apporder.CreateOrderItem) apporder.CreateOrderRequest {
	return apporder.CreateOrderRequest{
		UserID:         f.buyer.ID,
		Items:          items,
		BillingAddress: address(),
	}
}

func line(productID string, qty int) apporder.CreateOrderItem {
	return apporder.CreateOrderItem{ProductID: productID, Quantity: qty}
}
