package mysql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/testutil"
)

func newOrder(t *testing.T, userID, orderNo string) *order.Order {
	t.Helper()
	p := product.NewProduct("Lamp", "LAMP-1", decimal.RequireFromString("20.00"), decimal.NullDecimal{}, 5, true)
	p.BrandName = "Lumen"

	id := uuid.NewString()
	items := []order.Item{order.NewItem(id, p, 3)}
	totals, err := pricing.NewPolicy(pricing.DefaultConfig()).Totals(context.Background(), order.Subtotal(items), "")
	require.NoError(t, err)

	o := order.NewOrder(id, userID, items, totals)
	o.OrderNo = orderNo
	o.ShippingAddress = order.Address{Name: "Ann", AddressLine1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	o.BillingAddress = o.ShippingAddress
	return o
}

func seedUser(t *testing.T, repo user.Repository, email, name string) *user.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := user.NewUser(email, string(hashed), name, "")
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	repo := mysql.NewOrderRepository(testutil.NewDB(t))
	ctx := context.Background()

	o := newOrder(t, "u-1", "ORD-2026-AAAAAAAAAA")
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNo, got.OrderNo)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, "Springfield", got.ShippingAddress.City)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Lumen", got.Items[0].ProductDetails.Brand)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.True(t, got.Subtotal.Equal(decimal.RequireFromString("60")))
	assert.True(t, got.TotalsConsistent(), "读回的金额仍满足不变量")

	byNo, err := repo.FindByOrderNo(ctx, o.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNo.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, order.ErrOrderNotFound))
}

func TestOrderRepository_DuplicateOrderNo(t *testing.T) {
	repo := mysql.NewOrderRepository(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder(t, "u-1", "ORD-2026-DUPLICATE0")))
	err := repo.Create(ctx, newOrder(t, "u-2", "ORD-2026-DUPLICATE0"))
	assert.True(t, errors.Is(err, order.ErrOrderNoConflict))
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo := mysql.NewOrderRepository(testutil.NewDB(t))
	ctx := context.Background()

	o := newOrder(t, "u-1", "ORD-2026-STATUS0001")
	require.NoError(t, repo.Create(ctx, o))

	now := time.Now().UTC().Truncate(time.Second)
	_, err := o.TransitionTo(order.StatusConfirmed, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, o, order.StatusPending))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(now))

	// 以过期的from条件更新:状态已被修改
	stale := *got
	stale.Status = order.StatusCancelled
	err = repo.UpdateStatus(ctx, &stale, order.StatusPending)
	assert.True(t, errors.Is(err, order.ErrStatusConflict))

	missing := *got
	missing.ID = "missing"
	err = repo.UpdateStatus(ctx, &missing, order.StatusConfirmed)
	assert.True(t, errors.Is(err, order.ErrOrderNotFound))
}

func TestOrderRepository_List(t *testing.T) {
	db := testutil.NewDB(t)
	repo := mysql.NewOrderRepository(db)
	users := mysql.NewUserRepository(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.com", "Alice")
	bob := seedUser(t, users, "bob@example.com", "Bob")

	o1 := newOrder(t, alice.ID, "ORD-2026-LIST000001")
	o2 := newOrder(t, alice.ID, "ORD-2026-LIST000002")
	o2.CreatedAt = o1.CreatedAt.Add(time.Minute)
	o3 := newOrder(t, bob.ID, "ORD-2026-LIST000003")
	for _, o := range []*order.Order{o1, o2, o3} {
		require.NoError(t, repo.Create(ctx, o))
	}
	o3.Status = order.StatusCancelled
	require.NoError(t, repo.UpdateStatus(ctx, o3, order.StatusPending))

	mine, total, err := repo.ListByUserID(ctx, alice.ID, order.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, mine, 2)
	assert.Equal(t, o2.ID, mine[0].ID, "按创建时间倒序")
	assert.Len(t, mine[0].Items, 1)

	all, total, err := repo.List(ctx, order.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	cancelled, total, err := repo.List(ctx, order.ListParams{Page: 1, PageSize: 10, Status: order.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, o3.ID, cancelled[0].ID)

	byBuyer, total, err := repo.List(ctx, order.ListParams{Page: 1, PageSize: 10, Search: "bob@"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bob.ID, byBuyer[0].UserID)

	byNo, total, err := repo.List(ctx, order.ListParams{Page: 1, PageSize: 10, Search: "LIST000002"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, o2.ID, byNo[0].ID)
}
