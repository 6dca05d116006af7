package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/storefront/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	// 2. 连接数据库
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一索引冲突转换为gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 3. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 4. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// 5. 自动迁移表结构
	// 注意：生产环境应使用版本化的迁移脚本
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构
// 测试中对SQLite内存库同样调用此函数
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&InventoryLogModel{},
	)
}

// UserModel GORM用户模型
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
type UserModel struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Name      string         `gorm:"size:50;not null;comment:姓名"`
	Phone     string         `gorm:"size:30;comment:电话"`
	Role      string         `gorm:"size:20;not null;comment:角色(customer/admin)"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM商品模型
// 1. 金额使用decimal(10,2)存储
// 2. SKU唯一索引
// 3. in_stock由库存调整语句统一维护
type ProductModel struct {
	ID                string              `gorm:"primaryKey;size:36"`
	Name              string              `gorm:"index:idx_product_search;size:255;not null;comment:商品名称"`
	SKU               string              `gorm:"uniqueIndex;size:64;not null;comment:SKU"`
	Description       string              `gorm:"type:text;comment:商品描述"`
	Price             decimal.Decimal     `gorm:"type:decimal(10,2);not null;comment:原价"`
	SalePrice         decimal.NullDecimal `gorm:"type:decimal(10,2);comment:促销价"`
	StockQuantity     int                 `gorm:"not null;comment:库存数量"`
	ManageStock       bool                `gorm:"not null;comment:是否管理库存"`
	InStock           bool                `gorm:"index;not null;comment:是否有货"`
	LowStockThreshold int                 `gorm:"not null;comment:低库存阈值"`
	IsActive          bool                `gorm:"index;not null;comment:是否上架"`
	SalesCount        int                 `gorm:"not null;comment:销量"`
	CategoryName      string              `gorm:"size:100;comment:分类"`
	BrandName         string              `gorm:"size:100;comment:品牌"`
	Images            []string            `gorm:"serializer:json;type:text;comment:图片列表"`
	CreatedAt         time.Time           `gorm:"index;comment:创建时间"`
	UpdatedAt         time.Time           `gorm:"comment:更新时间"`
	DeletedAt         gorm.DeletedAt      `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// OrderModel GORM订单模型
// 1. 与OrderItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
// 3. 地址快照以JSON存储
type OrderModel struct {
	ID              string           `gorm:"primaryKey;size:36"`
	OrderNo         string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID          string           `gorm:"index;size:36;not null;comment:买家用户ID"`
	Status          string           `gorm:"index;size:20;not null;comment:订单状态"`
	PaymentStatus   string           `gorm:"index;size:20;not null;comment:支付状态"`
	PaymentMethod   string           `gorm:"size:20;not null;comment:支付方式"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:商品小计"`
	TaxRate         decimal.Decimal  `gorm:"type:decimal(6,4);not null;comment:税率"`
	TaxAmount       decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:税额"`
	ShippingAmount  decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:运费"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:优惠金额"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(10,2);not null;comment:应付总额"`
	Currency        string           `gorm:"size:3;not null;comment:币种"`
	BillingAddress  AddressJSON      `gorm:"serializer:json;type:text;comment:账单地址快照"`
	ShippingAddress AddressJSON      `gorm:"serializer:json;type:text;comment:收货地址快照"`
	Notes           string           `gorm:"type:text;comment:买家备注"`
	AdminNotes      string           `gorm:"type:text;comment:管理员备注"`
	TrackingNumber  string           `gorm:"size:100;comment:物流单号"`
	CouponCode      string           `gorm:"size:50;comment:优惠码"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID"` // 一对多关联
	ConfirmedAt     *time.Time       `gorm:"comment:确认时间"`
	ShippedAt       *time.Time       `gorm:"comment:发货时间"`
	DeliveredAt     *time.Time       `gorm:"comment:签收时间"`
	CancelledAt     *time.Time       `gorm:"comment:取消时间"`
	CreatedAt       time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time        `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// AddressJSON 地址快照的存储结构
type AddressJSON struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// OrderItemModel GORM订单明细模型
// 记录下单时的名称、SKU、单价快照；ProductID是弱引用
type OrderItemModel struct {
	ID             string          `gorm:"primaryKey;size:36"`
	OrderID        string          `gorm:"index;size:36;not null;comment:订单ID"`
	ProductID      string          `gorm:"index;size:36;not null;comment:商品ID"`
	ProductName    string          `gorm:"size:255;not null;comment:商品名称快照"`
	ProductSKU     string          `gorm:"size:64;not null;comment:SKU快照"`
	ProductDetails ItemDetailsJSON `gorm:"serializer:json;type:text;comment:商品信息快照"`
	Quantity       int             `gorm:"not null;comment:购买数量"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:下单时单价"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:行小计"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ItemDetailsJSON 商品信息快照的存储结构
type ItemDetailsJSON struct {
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// InventoryLogModel 库存流水模型(只增不改)
type InventoryLogModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	ProductID   string    `gorm:"index:idx_inventory_product;size:36;not null;comment:商品ID"`
	OrderID     string    `gorm:"index;size:36;comment:关联订单ID"`
	ChangeType  string    `gorm:"size:20;not null;comment:变更类型(DEDUCT/RELEASE)"`
	Quantity    int       `gorm:"not null;comment:变更数量(负数为减少)"`
	BeforeStock int       `gorm:"not null;comment:变更前库存"`
	AfterStock  int       `gorm:"not null;comment:变更后库存"`
	Remark      string    `gorm:"size:255;comment:备注"`
	CreatedAt   time.Time `gorm:"index:idx_inventory_product;comment:创建时间"`
}

// TableName 指定表名
func (InventoryLogModel) TableName() string {
	return "inventory_logs"
}
