package database

import (
	"Agora/models"

	"gorm.io/gorm"
)

// Models 需要建表的实体
func Models() []any {
	return []any{
		&models.Post{},
		&models.Comment{},
		&models.Reply{},
		&models.LikeFact{},
		&models.ChatSession{},
		&models.ChatMessage{},
	}
}

// Migrate 自动建表/补充索引
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
