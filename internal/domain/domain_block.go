// Package domain 定义领域模型和接口
package domain

import (
	"fmt"
	"strings"

	"github.com/haierkeys/block-journal-sync-service/pkg/timex"

	"github.com/google/uuid"
)

// BlockType 定义内容块类型
type BlockType string

const (
	BlockTypeParagraph    BlockType = "paragraph"
	BlockTypeHeading      BlockType = "heading"
	BlockTypeBulletList   BlockType = "bullet-list"
	BlockTypeNumberedList BlockType = "numbered-list"
	BlockTypeQuote        BlockType = "quote"
	BlockTypeCode         BlockType = "code"
	BlockTypeImage        BlockType = "image"
	BlockTypeTodo         BlockType = "todo"
)

// IsValid 判断块类型是否合法
func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeParagraph, BlockTypeHeading, BlockTypeBulletList,
		BlockTypeNumberedList, BlockTypeQuote, BlockTypeCode,
		BlockTypeImage, BlockTypeTodo:
		return true
	}
	return false
}

// Block 内容块领域模型
// Type 决定哪些可选字段有意义：Level 仅用于 heading，ImageURL/ImageAlt 仅用于 image
type Block struct {
	ID        string     `json:"id"`
	Type      BlockType  `json:"type"`
	Level     int        `json:"level,omitempty"`
	Text      string     `json:"text"`
	RichText  string     `json:"richText,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	ImageAlt  string     `json:"imageAlt,omitempty"`
	CreatedAt timex.Time `json:"createdAt"`
}

// NewBlockID 生成新的块标识
func NewBlockID() string {
	return uuid.NewString()
}

// NewParagraphBlock 创建空段落块
func NewParagraphBlock() Block {
	return Block{
		ID:        NewBlockID(),
		Type:      BlockTypeParagraph,
		CreatedAt: timex.Now(),
	}
}

// NewHeadingBlock 创建标题块，level 取值 1-3
func NewHeadingBlock(level int, text string) Block {
	return Block{
		ID:        NewBlockID(),
		Type:      BlockTypeHeading,
		Level:     level,
		Text:      text,
		CreatedAt: timex.Now(),
	}
}

// NewImageBlock 创建图片块
func NewImageBlock(url, alt string) Block {
	return Block{
		ID:        NewBlockID(),
		Type:      BlockTypeImage,
		ImageURL:  url,
		ImageAlt:  alt,
		CreatedAt: timex.Now(),
	}
}

// Validate 校验块字段与类型的约束
func (b *Block) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("block: missing id")
	}
	if !b.Type.IsValid() {
		return fmt.Errorf("block %s: invalid type %q", b.ID, b.Type)
	}
	if b.Type == BlockTypeHeading {
		if b.Level < 1 || b.Level > 3 {
			return fmt.Errorf("block %s: heading level %d out of range", b.ID, b.Level)
		}
	} else if b.Level != 0 {
		return fmt.Errorf("block %s: level set on non-heading type %q", b.ID, b.Type)
	}
	if b.Type != BlockTypeImage && (b.ImageURL != "" || b.ImageAlt != "") {
		return fmt.Errorf("block %s: image fields set on type %q", b.ID, b.Type)
	}
	return nil
}

// Sanitize 修复块字段：补齐缺失 ID，清除与类型不符的可选字段
func (b *Block) Sanitize() {
	if b.ID == "" {
		b.ID = NewBlockID()
	}
	if !b.Type.IsValid() {
		b.Type = BlockTypeParagraph
	}
	if b.Type != BlockTypeHeading {
		b.Level = 0
	} else if b.Level < 1 || b.Level > 3 {
		b.Level = 1
	}
	if b.Type != BlockTypeImage {
		b.ImageURL = ""
		b.ImageAlt = ""
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = timex.Now()
	}
}

// IsBlank 块是否无有效内容（空白文本且非图片）
func (b *Block) IsBlank() bool {
	if b.Type == BlockTypeImage {
		return b.ImageURL == ""
	}
	return strings.TrimSpace(b.Text) == ""
}

// CharCount 块文本字符数（按 rune 计）
func (b *Block) CharCount() int {
	return len([]rune(b.Text))
}
