package product

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// Service 商品领域服务接口
// 设计说明:
// 1. 封装商品上架时的业务规则校验
// 2. 不依赖具体的Repository实现(依赖倒置)
type Service interface {
	// CreateProduct 创建商品(上架)
	// 业务规则:
	// - 名称不能为空,SKU只允许字母、数字、-和_
	// - 价格、促销价、库存不能为负数
	// - SKU不能重复(数据库唯一索引保证)
	CreateProduct(ctx context.Context, params CreateParams) (*Product, error)

	// GetProduct 根据ID获取商品
	GetProduct(ctx context.Context, id string) (*Product, error)

	// ListProducts 分页查询商品列表
	ListProducts(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

// CreateParams 创建商品参数
type CreateParams struct {
	Name              string
	SKU               string
	Description       string
	Price             decimal.Decimal
	SalePrice         decimal.NullDecimal
	StockQuantity     int
	ManageStock       bool
	LowStockThreshold int
	CategoryName      string
	BrandName         string
	Images            []string
}

type service struct {
	repo Repository
}

// NewService 创建商品领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CreateProduct 创建商品
func (s *service) CreateProduct(ctx context.Context, params CreateParams) (*Product, error) {
	// 1. 基本信息校验
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 255 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "商品名称长度应为1-255个字符")
	}
	if !skuPattern.MatchString(params.SKU) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "SKU格式不正确")
	}

	// 2. 价格与库存校验
	if params.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if params.SalePrice.Valid && params.SalePrice.Decimal.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if params.StockQuantity < 0 || params.LowStockThreshold < 0 {
		return nil, ErrInvalidStock
	}

	// 3. 创建实体
	p := NewProduct(name, params.SKU, params.Price, params.SalePrice, params.StockQuantity, params.ManageStock)
	p.Description = params.Description
	p.CategoryName = params.CategoryName
	p.BrandName = params.BrandName
	p.Images = params.Images
	if params.LowStockThreshold > 0 {
		p.LowStockThreshold = params.LowStockThreshold
	}

	// 4. 持久化(SKU重复由Repository转换为ErrSKUDuplicate)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct 根据ID获取商品
func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ListProducts 分页查询商品列表
func (s *service) ListProducts(ctx context.Context, params ListParams) ([]*Product, int64, error) {
	return s.repo.List(ctx, params)
}
