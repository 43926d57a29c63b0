package dao

import (
	"time"

	"gorm.io/gorm"
)

// before 倒序分页：(col, id) 严格小于游标，同一时间戳的行按 id 继续翻页
func before(query *gorm.DB, column string, cursorAt int64, cursorID uint64) *gorm.DB {
	at := time.Unix(0, cursorAt).UTC()
	return query.Where("("+column+" < ? OR ("+column+" = ? AND id < ?))", at, at, cursorID)
}

// after 正序分页
func after(query *gorm.DB, column string, cursorAt int64, cursorID uint64) *gorm.DB {
	at := time.Unix(0, cursorAt).UTC()
	return query.Where("("+column+" > ? OR ("+column+" = ? AND id > ?))", at, at, cursorID)
}
