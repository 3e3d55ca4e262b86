package cache

import (
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// GetJSON 读取并反序列化键对应的 JSON 值
func GetJSON(kv KV, key string, out any) error {
	val, err := kv.Get(key)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(val, out); err != nil {
		return errors.Wrapf(err, "cache: unmarshal %s", key)
	}
	return nil
}

// SetJSON 序列化并写入 JSON 值
func SetJSON(kv KV, key string, in any) error {
	val, err := sonic.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "cache: marshal %s", key)
	}
	return kv.Set(key, val)
}
