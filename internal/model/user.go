package model

import (
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
)

// User 用户表模型
type User struct {
	UID       int64      `gorm:"column:uid;primaryKey" json:"uid"`
	Email     string     `gorm:"column:email;index" json:"email"`
	Username  string     `gorm:"column:username;index" json:"username"`
	Password  string     `gorm:"column:password" json:"password"`
	IsDeleted int64      `gorm:"column:is_deleted" json:"isDeleted"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;autoUpdateTime:false" json:"updatedAt"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt"`
}

// TableName 表名
func (User) TableName() string {
	return "user"
}
