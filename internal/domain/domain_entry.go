package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
	"github.com/haierkeys/block-journal-sync-service/pkg/util"
)

// TempIDPrefix 本地临时条目标识前缀
const TempIDPrefix = "temp-"

// Entry 日记条目领域模型
// Blocks 的顺序即文档阅读顺序
type Entry struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Blocks    []Block    `json:"blocks"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// NewTempID 生成本地临时条目标识
func NewTempID() string {
	return fmt.Sprintf("%s%d-%s", TempIDPrefix, time.Now().UnixMilli(), util.GetRandomString(8))
}

// IsTempID 判断是否为本地临时标识
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewEntry 创建指定日期的空条目，带临时标识和一个空段落块
func NewEntry(date string) *Entry {
	now := timex.Now()
	return &Entry{
		ID:        NewTempID(),
		Date:      date,
		Blocks:    []Block{NewParagraphBlock()},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Normalize 修复条目使其满足占位不变式：
// 块列表为空或全部空白时，重置为恰好一个空段落块；否则逐块修复字段
func (e *Entry) Normalize() {
	allBlank := true
	for i := range e.Blocks {
		e.Blocks[i].Sanitize()
		if !e.Blocks[i].IsBlank() {
			allBlank = false
		}
	}
	if len(e.Blocks) == 0 || allBlank {
		e.Blocks = []Block{NewParagraphBlock()}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timex.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
}

// CharCount 条目全部块的文本字符总数
func (e *Entry) CharCount() int {
	total := 0
	for i := range e.Blocks {
		total += e.Blocks[i].CharCount()
	}
	return total
}

// BlockCount 条目的块数量
func (e *Entry) BlockCount() int {
	return len(e.Blocks)
}

// Preview 从块内容推导的预览文本，非权威数据
func (e *Entry) Preview(maxChars int) string {
	var sb strings.Builder
	for i := range e.Blocks {
		t := strings.TrimSpace(e.Blocks[i].Text)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t)
		if sb.Len() >= maxChars {
			break
		}
	}
	runes := []rune(sb.String())
	if len(runes) > maxChars {
		return string(runes[:maxChars])
	}
	return sb.String()
}

// Clone 深拷贝条目
func (e *Entry) Clone() *Entry {
	cp := *e
	cp.Blocks = make([]Block, len(e.Blocks))
	copy(cp.Blocks, e.Blocks)
	return &cp
}
