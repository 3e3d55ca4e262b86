// Package domain 定义领域模型和接口
package domain

import (
	"context"

	"github.com/haierkeys/block-journal-sync-service/pkg/timex"

	"github.com/pkg/errors"
)

// ErrAuthFailed 远端认证失败，不可重试
var ErrAuthFailed = errors.New("remote authentication failed")

// ErrEntryNotFound 条目不存在
var ErrEntryNotFound = errors.New("entry not found")

// IsAuthError 判断是否为认证错误
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsRetryable 判断远端错误是否可重试
// 认证错误与条目不存在之外的错误均按瞬态 I/O 错误处理
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrEntryNotFound)
}

// RemoteEntry 远端存储返回的条目
type RemoteEntry struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Blocks    []Block    `json:"blocks"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// Entry 转换为领域条目并修复不变式
func (r *RemoteEntry) Entry() *Entry {
	e := &Entry{
		ID:        r.ID,
		Date:      r.Date,
		Blocks:    r.Blocks,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	e.Normalize()
	return e
}

// RemoteStore 远端持久化接口
// 所有调用都可能返回网络错误；认证失败必须包装 ErrAuthFailed
type RemoteStore interface {
	// CreateEntry 创建条目，返回远端分配的标识
	CreateEntry(ctx context.Context, draft *Entry) (*RemoteEntry, error)

	// UpdateEntry 以完整块列表覆盖条目内容
	UpdateEntry(ctx context.Context, id string, blocks []Block) (*RemoteEntry, error)

	// DeleteEntry 删除条目
	DeleteEntry(ctx context.Context, id string) error

	// ListEntries 拉取条目列表，limit <= 0 表示不限制
	ListEntries(ctx context.Context, limit int) ([]*RemoteEntry, error)
}

// EntryRepository 服务端条目仓储接口
type EntryRepository interface {
	// GetByID 根据标识获取条目
	GetByID(ctx context.Context, id int64, uid int64) (*ServerEntry, error)

	// Create 创建条目
	Create(ctx context.Context, entry *ServerEntry, uid int64) (*ServerEntry, error)

	// Update 更新条目内容
	Update(ctx context.Context, entry *ServerEntry, uid int64) (*ServerEntry, error)

	// UpdateDelete 标记条目为删除状态
	UpdateDelete(ctx context.Context, id int64, uid int64) error

	// List 按更新时间倒序获取条目列表
	List(ctx context.Context, uid int64, limit int) ([]*ServerEntry, error)

	// ListPage 按更新时间倒序分页获取条目列表，返回总行数
	ListPage(ctx context.Context, uid int64, offset int, limit int) ([]*ServerEntry, int64, error)

	// DeletePhysicalByTime 物理删除指定时间之前标记删除的条目
	DeletePhysicalByTime(ctx context.Context, timestamp int64) (int64, error)
}

// ServerEntry 服务端条目领域模型
type ServerEntry struct {
	ID         int64
	UID        int64
	Date       string
	Blocks     []Block
	CharCount  int
	BlockCount int
	IsDeleted  int
	CreatedAt  timex.Time
	UpdatedAt  timex.Time
	DeletedAt  int64
}
