package mysql

import (
	"context"

	"gorm.io/gorm"
)

// TxManager 事务管理器
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 支持嵌套事务:context中已有事务时使用SAVEPOINT,内层失败只回滚到保存点
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// 1. fn内的所有Repository操作都会在同一事务中执行
// 2. fn返回error时自动ROLLBACK,返回nil时自动COMMIT
// 3. 外层已开启事务时,内层返回error只回滚内层写入,外层可以继续
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    p, err := productRepo.GetForOrder(ctx, productID)
//	    if err != nil {
//	        return err
//	    }
//	    if _, err := productRepo.AdjustStock(ctx, p.ID, -quantity); err != nil {
//	        return err // 自动回滚
//	    }
//	    return orderRepo.Create(ctx, o)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := txFromContext(ctx); ok {
		return tx.Transaction(func(sp *gorm.DB) error {
			return fn(withTx(ctx, sp))
		})
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}
