// Package model 定义数据库模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 迁移指定模型的表结构，key 为空时迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Entry":
		return db.AutoMigrate(Entry{})
	case "User":
		return db.AutoMigrate(User{})
	case "":
		return db.AutoMigrate(User{}, Entry{})
	}
	return nil
}
