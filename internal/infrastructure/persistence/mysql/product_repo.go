package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

// Create 创建商品
// SKU唯一性由数据库UNIQUE索引保证
func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := toProductModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return product.ErrSKUDuplicate
		}
		return apperrors.Wrap(err, "创建商品失败")
	}

	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}

	return toProductEntity(&model), nil
}

// GetForOrder 加锁读取商品
// SELECT ... FOR UPDATE,锁持有到事务结束;不在事务中调用时没有锁语义
func (r *productRepository) GetForOrder(ctx context.Context, id string) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}

	return toProductEntity(&model), nil
}

// AdjustStock 原子调整库存
// 1. 单条UPDATE同时维护stock_quantity、sales_count、in_stock
// 2. WHERE stock_quantity + delta >= 0 防止库存为负
// 3. 影响行数为0时区分商品不存在与库存不足
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	db := getDB(ctx, r.db)

	result := adjustStockExec(db, id, delta, time.Now().UTC())
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "更新库存失败")
	}

	var model ProductModel
	if err := db.Select("id", "stock_quantity").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, product.ErrProductNotFound
		}
		return 0, apperrors.Wrap(err, "查询商品失败")
	}

	if result.RowsAffected == 0 {
		return model.StockQuantity, product.ErrInsufficientStock.WithMessagef("库存不足,剩余%d件", model.StockQuantity)
	}

	return model.StockQuantity, nil
}

// adjustStockSQL 库存调整语句
// in_stock必须排在stock_quantity之前:MySQL按SET顺序求值,排在后面的赋值读到的是已更新的列
const adjustStockSQL = "UPDATE products SET " +
	"in_stock = (stock_quantity + ? > 0), " +
	"sales_count = sales_count - ?, " +
	"stock_quantity = stock_quantity + ?, " +
	"updated_at = ? " +
	"WHERE id = ? AND deleted_at IS NULL AND stock_quantity + ? >= 0"

func adjustStockExec(db *gorm.DB, id string, delta int, now time.Time) *gorm.DB {
	return db.Exec(adjustStockSQL, delta, delta, delta, now, id, delta)
}

func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var models []ProductModel
	var total int64

	query := getDB(ctx, r.db).Model(&ProductModel{})

	if params.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", keyword, keyword)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	err := query.Order("created_at DESC").
		Limit(params.PageSize).
		Offset(offset(params.Page, params.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}

	return products, total, nil
}

func toProductModel(p *product.Product) *ProductModel {
	return &ProductModel{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Description:       p.Description,
		Price:             p.Price,
		SalePrice:         p.SalePrice,
		StockQuantity:     p.StockQuantity,
		ManageStock:       p.ManageStock,
		InStock:           p.InStock,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
		SalesCount:        p.SalesCount,
		CategoryName:      p.CategoryName,
		BrandName:         p.BrandName,
		Images:            p.Images,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:                model.ID,
		Name:              model.Name,
		SKU:               model.SKU,
		Description:       model.Description,
		Price:             model.Price,
		SalePrice:         model.SalePrice,
		StockQuantity:     model.StockQuantity,
		ManageStock:       model.ManageStock,
		InStock:           model.InStock,
		LowStockThreshold: model.LowStockThreshold,
		IsActive:          model.IsActive,
		SalesCount:        model.SalesCount,
		CategoryName:      model.CategoryName,
		BrandName:         model.BrandName,
		Images:            model.Images,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}
