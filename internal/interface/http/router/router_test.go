package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	appproduct "github.com/xiebiao/storefront/internal/application/product"
	appuser "github.com/xiebiao/storefront/internal/application/user"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
	"github.com/xiebiao/storefront/internal/testutil"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
)

// memSessions 内存会话与黑名单
type memSessions struct {
	mu        sync.Mutex
	blacklist map[string]bool
}

func (m *memSessions) SaveSession(context.Context, string, map[string]interface{}, time.Duration) error {
	return nil
}

func (m *memSessions) DeleteSession(context.Context, string) error { return nil }

func (m *memSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.blacklist[token] = true
	}
	return nil
}

func (m *memSessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blacklist[token], nil
}

// memIdempotency 内存幂等键
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdempotency) Reserve(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[scope+key]; ok {
		return v, false, nil
	}
	m.keys[scope+key] = ""
	return "", true, nil
}

func (m *memIdempotency) Complete(_ context.Context, scope, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[scope+key] = orderID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+key)
	return nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	users  user.Repository
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zaptest.NewLogger(t)

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	logRepo := mysql.NewInventoryLogRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	txManager := mysql.NewTxManager(db)
	sessions := &memSessions{blacklist: make(map[string]bool)}
	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	publisher := order.EventPublisher(nopPublisher{})

	userService := user.NewService(userRepo, bcrypt.MinCost)
	productService := product.NewService(productRepo)
	policy := pricing.NewPolicy(pricing.DefaultConfig())

	h := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, logger),
			appuser.NewLoginUseCase(userService, jwtManager, sessions, logger),
			appuser.NewLogoutUseCase(sessions, logger),
		),
		Product: handler.NewProductHandler(
			appproduct.NewCreateProductUseCase(productService, logger),
			appproduct.NewListProductsUseCase(productService),
			appproduct.NewListInventoryLogsUseCase(productService, logRepo),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(orderRepo, productRepo, logRepo, userRepo, policy, txManager, publisher,
				&memIdempotency{keys: make(map[string]string)}, apporder.CreateOrderConfig{}, logger),
			apporder.NewCancelOrderUseCase(orderRepo, productRepo, logRepo, txManager, publisher, logger),
			apporder.NewGetOrderUseCase(orderRepo, userRepo),
			apporder.NewListUserOrdersUseCase(orderRepo),
		),
		AdminOrder: handler.NewAdminOrderHandler(
			apporder.NewListOrdersUseCase(orderRepo, userRepo),
			apporder.NewUpdateOrderStatusUseCase(orderRepo, productRepo, logRepo, txManager, publisher, logger),
		),
	}

	engine := router.New(router.Options{Mode: gin.TestMode, MetricsPath: "/metrics"},
		h, middleware.NewAuthMiddleware(jwtManager, sessions), logger)
	return &server{t: t, engine: engine, users: userRepo}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, order.Event) error { return nil }

func (s *server) do(method, path, token string, body any, headers ...string) envelope {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (s *server) login(email string) string {
	s.t.Helper()
	env := s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, 0, env.Code, env.Message)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func (s *server) seedAdmin() string {
	s.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(s.t, err)
	admin := user.NewUser("admin@example.com", string(hashed), "Admin", "")
	admin.Role = user.RoleAdmin
	require.NoError(s.t, s.users.Create(context.Background(), admin))
	return s.login("admin@example.com")
}

func (s *server) registerBuyer(email string) string {
	s.t.Helper()
	env := s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{
		"email": email, "password": "password123", "name": "Buyer",
	})
	require.Equal(s.t, 0, env.Code, env.Message)
	return s.login(email)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

var billing = gin.H{
	"name":           "Buyer",
	"address_line_1": "1 Main St",
	"city":           "Springfield",
	"postal_code":    "12345",
	"country":        "US",
}

func TestCheckoutFlow(t *testing.T) {
	s := newServer(t)
	adminToken := s.seedAdmin()
	buyerToken := s.registerBuyer("buyer@example.com")

	// 1. 管理员上架商品
	env := s.do(http.MethodPost, "/api/v1/products", adminToken, gin.H{
		"name": "Coffee Mug", "sku": "MUG-1", "price": "10.00", "sale_price": "8.00", "stock_quantity": 5,
	})
	require.Equal(t, 0, env.Code, env.Message)
	p := decode[appproduct.ProductDTO](t, env)
	assert.Equal(t, "8.00", *p.SalePrice)

	// 2. 公开商品列表
	env = s.do(http.MethodGet, "/api/v1/products?keyword=mug", "", nil)
	require.Equal(t, 0, env.Code)
	list := decode[struct {
		Total int64 `json:"total"`
	}](t, env)
	assert.Equal(t, int64(1), list.Total)

	// 3. 下单,客户端价格被忽略
	env = s.do(http.MethodPost, "/api/v1/orders", buyerToken, gin.H{
		"items":           []gin.H{{"product_id": p.ID, "quantity": 2, "price": "0.01"}},
		"billing_address": billing,
	}, "Idempotency-Key", "k-1")
	require.Equal(t, 0, env.Code, env.Message)
	created := decode[apporder.OrderDTO](t, env)
	assert.Equal(t, "27.27", created.TotalAmount)
	assert.Equal(t, "8.00", created.Items[0].Price)

	// 幂等重放
	env = s.do(http.MethodPost, "/api/v1/orders", buyerToken, gin.H{
		"items":           []gin.H{{"product_id": p.ID, "quantity": 2}},
		"billing_address": billing,
	}, "Idempotency-Key", "k-1")
	require.Equal(t, 0, env.Code)
	assert.Equal(t, created.ID, decode[apporder.OrderDTO](t, env).ID)

	// 4. 买家查询
	env = s.do(http.MethodGet, "/api/v1/orders/"+created.ID, buyerToken, nil)
	require.Equal(t, 0, env.Code)
	env = s.do(http.MethodGet, "/api/v1/orders?status=PENDING", buyerToken, nil)
	require.Equal(t, 0, env.Code)
	assert.Equal(t, int64(1), decode[struct {
		Total int64 `json:"total"`
	}](t, env).Total)

	// 5. 管理员推进状态
	env = s.do(http.MethodPatch, "/api/v1/admin/orders/"+created.ID+"/status", adminToken, gin.H{"status": "CONFIRMED"})
	require.Equal(t, 0, env.Code, env.Message)
	assert.Equal(t, "CONFIRMED", decode[apporder.OrderDTO](t, env).Status)

	env = s.do(http.MethodGet, "/api/v1/admin/orders?search=buyer@example.com", adminToken, nil)
	require.Equal(t, 0, env.Code)

	// 6. 买家取消,库存回补
	env = s.do(http.MethodPost, "/api/v1/orders/"+created.ID+"/cancel", buyerToken, nil)
	require.Equal(t, 0, env.Code, env.Message)
	assert.Equal(t, "CANCELLED", decode[apporder.OrderDTO](t, env).Status)

	env = s.do(http.MethodGet, "/api/v1/admin/products/"+p.ID+"/inventory-logs", adminToken, nil)
	require.Equal(t, 0, env.Code)
	logs := decode[struct {
		List []appproduct.InventoryLogDTO `json:"list"`
	}](t, env)
	require.Len(t, logs.List, 2)
	assert.Equal(t, 5, logs.List[0].AfterStock)
}

func TestCheckoutErrors(t *testing.T) {
	s := newServer(t)
	adminToken := s.seedAdmin()
	buyerToken := s.registerBuyer("buyer@example.com")

	env := s.do(http.MethodPost, "/api/v1/products", adminToken, gin.H{
		"name": "Teapot", "sku": "TEA-1", "price": "20", "stock_quantity": 1,
	})
	require.Equal(t, 0, env.Code, env.Message)
	p := decode[appproduct.ProductDTO](t, env)

	env = s.do(http.MethodPost, "/api/v1/orders", buyerToken, gin.H{
		"items":           []gin.H{{"product_id": p.ID, "quantity": 2}},
		"billing_address": billing,
	})
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, env.Code)
	assert.Contains(t, env.Message, "Teapot")

	env = s.do(http.MethodPost, "/api/v1/orders", buyerToken, gin.H{
		"items":           []gin.H{},
		"billing_address": billing,
	})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)

	env = s.do(http.MethodPatch, "/api/v1/admin/orders/missing/status", adminToken, gin.H{"status": "CONFIRMED"})
	assert.Equal(t, apperrors.ErrCodeOrderNotFound, env.Code)
}

func TestAuthorization(t *testing.T) {
	s := newServer(t)
	buyerToken := s.registerBuyer("buyer@example.com")

	env := s.do(http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

	env = s.do(http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)

	env = s.do(http.MethodGet, "/api/v1/admin/orders", buyerToken, nil)
	assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

	env = s.do(http.MethodPost, "/api/v1/products", buyerToken, gin.H{"name": "X", "sku": "X-1", "price": "1"})
	assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

	// 登出后Token失效
	env = s.do(http.MethodPost, "/api/v1/users/logout", buyerToken, nil)
	require.Equal(t, 0, env.Code, env.Message)
	env = s.do(http.MethodGet, "/api/v1/orders", buyerToken, nil)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, env.Code)
}

func TestPingAndMetrics(t *testing.T) {
	s := newServer(t)

	env := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, 0, env.Code)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
