package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"

	"github.com/bytedance/sonic"
)

// BlockList 块列表，以 JSON 文本落库
type BlockList []domain.Block

// Value 实现 driver.Valuer
func (b BlockList) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := sonic.Marshal([]domain.Block(b))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (b *BlockList) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported block list column type %T", value)
	}
	if len(data) == 0 {
		*b = nil
		return nil
	}
	var blocks []domain.Block
	if err := sonic.Unmarshal(data, &blocks); err != nil {
		return err
	}
	*b = blocks
	return nil
}

// Entry 日记条目表模型
type Entry struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID        int64      `gorm:"column:uid;index" json:"uid"`
	Date       string     `gorm:"column:date;index" json:"date"`
	Blocks     BlockList  `gorm:"column:blocks;type:text" json:"blocks"`
	CharCount  int64      `gorm:"column:char_count" json:"charCount"`
	BlockCount int64      `gorm:"column:block_count" json:"blockCount"`
	IsDeleted  int64      `gorm:"column:is_deleted;index" json:"isDeleted"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;autoUpdateTime:false" json:"createdAt"`
	UpdatedAt  timex.Time `gorm:"column:updated_at;type:datetime;autoUpdateTime:false" json:"updatedAt"`
	DeletedAt  int64      `gorm:"column:deleted_at" json:"deletedAt"`
}

// TableName 表名
func (Entry) TableName() string {
	return "entry"
}
