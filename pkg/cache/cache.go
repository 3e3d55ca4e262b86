// Package cache 提供日记条目的本地持久化缓存
// Package cache provides the durable local cache for journal entries.
package cache

import (
	"github.com/pkg/errors"
)

// ErrNotFound 缓存键不存在
// ErrNotFound is returned when a key has no cached value.
var ErrNotFound = errors.New("cache: key not found")

// KV 键值缓存接口 Key-value cache interface.
type KV interface {
	// Get 读取键对应的原始字节，键不存在时返回 ErrNotFound
	Get(key string) ([]byte, error)
	// Set 写入键值，写成功后数据必须已落盘
	Set(key string, value []byte) error
	// Remove 删除键，键不存在不视为错误
	Remove(key string) error
	// Keys 遍历全部键
	Keys() ([]string, error)
}
