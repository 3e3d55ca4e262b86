package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
)

// diskvKV 基于 diskv 的文件缓存实现
type diskvKV struct {
	d        *diskv.Diskv
	basePath string
}

var _ KV = (*diskvKV)(nil)

// NewDiskv 创建 diskv 文件缓存，basePath 不存在时自动创建
func NewDiskv(basePath string) (KV, error) {
	if basePath == "" {
		return nil, errors.New("cache: base path is empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "cache: create base path")
	}
	d := diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
	return &diskvKV{d: d, basePath: basePath}, nil
}

func (p *diskvKV) Get(key string) ([]byte, error) {
	val, err := p.d.Read(key)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "cache: read %s", key)
	}
	return val, nil
}

func (p *diskvKV) Set(key string, value []byte) error {
	// diskv.Write 内部 fsync 临时文件后 rename，保证落盘
	if err := p.d.Write(key, value); err != nil {
		return errors.Wrapf(err, "cache: write %s", key)
	}
	return nil
}

func (p *diskvKV) Remove(key string) error {
	err := p.d.Erase(key)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrapf(err, "cache: erase %s", key)
	}
	return nil
}

func (p *diskvKV) Keys() ([]string, error) {
	var keys []string
	for key := range p.d.Keys(nil) {
		keys = append(keys, key)
	}
	return keys, nil
}

// keyToPathTransform 把形如 a/b/c 的键映射为子目录
func keyToPathTransform(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	last := len(parts) - 1
	return &diskv.PathKey{
		Path:     parts[:last],
		FileName: parts[last] + ".json",
	}
}

func pathToKeyTransform(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, ".json")
	if len(pk.Path) == 0 {
		return name
	}
	return filepath.ToSlash(filepath.Join(append(append([]string{}, pk.Path...), name)...))
}
