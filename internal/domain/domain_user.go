package domain

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// User 用户领域模型
type User struct {
	UID       int64
	Email     string
	Username  string
	Password  string
	Token     string
	IsDeleted bool
	CreatedAt int64
	UpdatedAt int64
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据 UID 获取用户
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByEmail 根据邮箱获取用户，不存在时返回 (nil, nil)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername 根据用户名获取用户，不存在时返回 (nil, nil)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create 创建用户，返回带 UID 的用户
	Create(ctx context.Context, user *User) (*User, error)

	// UpdatePassword 更新用户密码哈希
	UpdatePassword(ctx context.Context, uid int64, passwordHash string) error
}
