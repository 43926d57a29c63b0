package dao

import (
	"context"

	"gorm.io/gorm"
)

// incrCounter 对冗余计数列做原子增减
// 减少时要求当前值足够，保证计数不会出现负数；返回受影响行数
func incrCounter(ctx context.Context, db *gorm.DB, model any, id uint64, column string, delta int64) (int64, error) {
	if delta == 0 {
		return 0, nil
	}
	query := db.WithContext(ctx).Model(model).Where("id = ?", id)
	if delta < 0 {
		query = query.Where(column+" >= ?", -delta)
	}
	res := query.UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	return res.RowsAffected, res.Error
}

// readCounter 读取单个计数列
func readCounter(ctx context.Context, db *gorm.DB, model any, id uint64, column string) (int64, error) {
	var value int64
	err := db.WithContext(ctx).Model(model).
		Select(column).
		Where("id = ?", id).
		Limit(1).
		Scan(&value).Error
	return value, err
}
