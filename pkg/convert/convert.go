// Package convert 提供结构体与基础类型转换工具
package convert

import (
	"strconv"

	"github.com/jinzhu/copier"
)

// StructAssign 将 source 的同名字段复制到 target
// target 必须为指针，返回填充后的 target
func StructAssign(source interface{}, target interface{}) interface{} {
	_ = copier.CopyWithOption(target, source, copier.Option{
		IgnoreEmpty: false,
		DeepCopy:    true,
	})
	return target
}

type StrTo string

func (s StrTo) String() string {
	return string(s)
}

func (s StrTo) Int() (int, error) {
	v, err := strconv.Atoi(s.String())
	return v, err
}

func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

func (s StrTo) UInt32() (uint32, error) {
	v, err := strconv.Atoi(s.String())
	return uint32(v), err
}

func (s StrTo) MustUInt32() uint32 {
	v, _ := s.UInt32()
	return v
}

func (s StrTo) Int64() (int64, error) {
	v, err := strconv.ParseInt(s.String(), 10, 64)
	return v, err
}

func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}
