package editor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

// Coordinator 光标协调器
// 负责块序列与宿主选区之间的换算：光标安放、跨块选区构造、跨块删除
type Coordinator struct {
	surface   TextSurface
	scheduler RenderScheduler
	logger    *zap.Logger

	// dragAnchor 拖拽选择的起点，非拖拽状态为 nil
	dragAnchor *Position
}

// NewCoordinator 创建光标协调器
func NewCoordinator(surface TextSurface, scheduler RenderScheduler, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		surface:   surface,
		scheduler: scheduler,
		logger:    logger,
	}
}

// CurrentPosition 从活动选区推导当前光标位置
// 选区不在任何块内或跨块时 ok 为 false
func (c *Coordinator) CurrentPosition() (Position, bool) {
	r, ok := c.surface.Selection()
	if !ok {
		return Position{}, false
	}
	if !r.IsCollapsed() {
		return Position{}, false
	}
	return r.Start, true
}

// PlaceCaret 在块内指定偏移安放光标
// 永不失败：偏移越界时退到块尾，块未挂载时记录警告并安排一次渲染后重试
func (c *Coordinator) PlaceCaret(blockID string, offset int) {
	pos := c.clamp(blockID, offset)
	if err := c.surface.SetCaret(pos); err != nil {
		c.logger.Warn("place caret failed, scheduling one retry",
			zap.String("blockId", blockID),
			zap.Int("offset", offset),
			zap.Error(err))
		c.scheduler.AfterRender(func() {
			retryPos := c.clamp(blockID, offset)
			if err := c.surface.SetCaret(retryPos); err != nil {
				c.logger.Warn("place caret retry failed",
					zap.String("blockId", blockID),
					zap.Error(err))
			}
		})
	}
}

// clamp 把偏移收敛到块文本范围内
func (c *Coordinator) clamp(blockID string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if n, ok := c.surface.BlockTextLength(blockID); ok && offset > n {
		offset = n
	}
	return Position{BlockID: blockID, Offset: offset}
}

// BeginDrag 开始拖拽选择
func (c *Coordinator) BeginDrag(x, y float64) {
	pos, ok := c.surface.BlockAtPoint(x, y)
	if !ok {
		return
	}
	c.dragAnchor = &pos
}

// UpdateDrag 拖拽过程中根据指针位置更新选区
// 起止落在不同块上时禁用原生编辑并手工构造跨块选区，
// 拖拽方向反转时按文档顺序交换端点
func (c *Coordinator) UpdateDrag(blocks []domain.Block, x, y float64) {
	if c.dragAnchor == nil {
		return
	}
	pos, ok := c.surface.BlockAtPoint(x, y)
	if !ok {
		return
	}
	if pos.BlockID == c.dragAnchor.BlockID {
		c.surface.SetEditable(true)
		r := Range{Start: *c.dragAnchor, End: pos}
		if pos.Offset < c.dragAnchor.Offset {
			r.Start, r.End = r.End, r.Start
		}
		if err := c.surface.SetRange(r); err != nil {
			c.logger.Warn("set same-block drag range failed", zap.Error(err))
		}
		return
	}

	// 跨块拖拽：先停掉宿主的原生编辑
	c.surface.SetEditable(false)
	r := Range{Start: *c.dragAnchor, End: pos}
	if ComparePositions(blocks, r.End, r.Start) < 0 {
		r.Start, r.End = r.End, r.Start
	}
	if err := c.surface.SetRange(r); err != nil {
		c.logger.Warn("set cross-block drag range failed", zap.Error(err))
	}
}

// EndDrag 结束拖拽选择，恢复原生编辑
func (c *Coordinator) EndDrag() {
	c.dragAnchor = nil
	c.surface.SetEditable(true)
}

// BlockIndex 返回块在序列中的下标，不存在时返回 -1
func BlockIndex(blocks []domain.Block, blockID string) int {
	for i := range blocks {
		if blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}

// ComparePositions 按文档顺序比较两个位置
// a 在 b 之前返回负值，之后返回正值，相同返回 0
func ComparePositions(blocks []domain.Block, a, b Position) int {
	ai := BlockIndex(blocks, a.BlockID)
	bi := BlockIndex(blocks, b.BlockID)
	if ai != bi {
		return ai - bi
	}
	return a.Offset - b.Offset
}

// NormalizeRange 确保选区端点按文档顺序排列
func NormalizeRange(blocks []domain.Block, r Range) Range {
	if ComparePositions(blocks, r.End, r.Start) < 0 {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// DeleteRange 删除选区覆盖的内容
// 跨块时：首块未选中前缀与末块未选中后缀拼成一个幸存块，
// 中间块与末块整体删除，光标落在接缝处；同块退化为子串删除
func DeleteRange(blocks []domain.Block, r Range) ([]domain.Block, Position) {
	r = NormalizeRange(blocks, r)
	first := BlockIndex(blocks, r.Start.BlockID)
	last := BlockIndex(blocks, r.End.BlockID)
	if first < 0 || last < 0 {
		return blocks, r.Start
	}

	if first == last {
		b := blocks[first]
		runes := []rune(b.Text)
		start := clampOffset(r.Start.Offset, len(runes))
		end := clampOffset(r.End.Offset, len(runes))
		b.Text = string(runes[:start]) + string(runes[end:])
		b.RichText = ""
		out := make([]domain.Block, len(blocks))
		copy(out, blocks)
		out[first] = b
		return out, Position{BlockID: b.ID, Offset: start}
	}

	firstBlock := blocks[first]
	lastBlock := blocks[last]
	firstRunes := []rune(firstBlock.Text)
	lastRunes := []rune(lastBlock.Text)
	start := clampOffset(r.Start.Offset, len(firstRunes))
	end := clampOffset(r.End.Offset, len(lastRunes))

	firstBlock.Text = string(firstRunes[:start]) + string(lastRunes[end:])
	firstBlock.RichText = ""

	out := make([]domain.Block, 0, len(blocks)-(last-first))
	out = append(out, blocks[:first]...)
	out = append(out, firstBlock)
	out = append(out, blocks[last+1:]...)
	return out, Position{BlockID: firstBlock.ID, Offset: start}
}

// CopyRange 提取选区覆盖的文本
// 同块取子串；跨块时各块选中部分按文档顺序以换行连接
func CopyRange(blocks []domain.Block, r Range) string {
	r = NormalizeRange(blocks, r)
	first := BlockIndex(blocks, r.Start.BlockID)
	last := BlockIndex(blocks, r.End.BlockID)
	if first < 0 || last < 0 {
		return ""
	}

	if first == last {
		runes := []rune(blocks[first].Text)
		start := clampOffset(r.Start.Offset, len(runes))
		end := clampOffset(r.End.Offset, len(runes))
		return string(runes[start:end])
	}

	var sb strings.Builder
	firstRunes := []rune(blocks[first].Text)
	sb.WriteString(string(firstRunes[clampOffset(r.Start.Offset, len(firstRunes)):]))
	for i := first + 1; i < last; i++ {
		sb.WriteByte('\n')
		sb.WriteString(blocks[i].Text)
	}
	lastRunes := []rune(blocks[last].Text)
	sb.WriteByte('\n')
	sb.WriteString(string(lastRunes[:clampOffset(r.End.Offset, len(lastRunes))]))
	return sb.String()
}

// PasteText 在位置处插入文本
// 单行并入当前块；多行时首行接在插入点前文之后，
// 其余各行成为新的段落块，原插入点之后的文本并入最后一行，
// 光标落在最后一行的粘贴内容末尾
func PasteText(blocks []domain.Block, pos Position, text string) ([]domain.Block, Position) {
	idx := BlockIndex(blocks, pos.BlockID)
	if idx < 0 {
		return blocks, pos
	}
	lines := strings.Split(text, "\n")

	b := blocks[idx]
	runes := []rune(b.Text)
	at := clampOffset(pos.Offset, len(runes))
	head, tail := string(runes[:at]), string(runes[at:])

	if len(lines) == 1 {
		b.Text = head + lines[0] + tail
		b.RichText = ""
		out := make([]domain.Block, len(blocks))
		copy(out, blocks)
		out[idx] = b
		return out, Position{BlockID: b.ID, Offset: at + len([]rune(lines[0]))}
	}

	b.Text = head + lines[0]
	b.RichText = ""

	out := make([]domain.Block, 0, len(blocks)+len(lines)-1)
	out = append(out, blocks[:idx]...)
	out = append(out, b)
	for _, line := range lines[1 : len(lines)-1] {
		nb := domain.NewParagraphBlock()
		nb.Text = line
		out = append(out, nb)
	}
	lastLine := lines[len(lines)-1]
	nb := domain.NewParagraphBlock()
	nb.Text = lastLine + tail
	out = append(out, nb)
	out = append(out, blocks[idx+1:]...)
	return out, Position{BlockID: nb.ID, Offset: len([]rune(lastLine))}
}

// MergeWithPrevious 把指定块的文本并入前一块尾部并删除该块
// 返回新块列表与接缝处的光标位置；块不存在或已是首块时原样返回
func MergeWithPrevious(blocks []domain.Block, blockID string) ([]domain.Block, Position, bool) {
	idx := BlockIndex(blocks, blockID)
	if idx <= 0 {
		return blocks, Position{}, false
	}
	prev := blocks[idx-1]
	cur := blocks[idx]
	joint := len([]rune(prev.Text))

	prev.Text += cur.Text
	if prev.RichText != "" || cur.RichText != "" {
		rich := prev.RichText
		if rich == "" {
			rich = prev.Text[:len(prev.Text)-len(cur.Text)]
		}
		curRich := cur.RichText
		if curRich == "" {
			curRich = cur.Text
		}
		prev.RichText = rich + curRich
	}

	out := make([]domain.Block, 0, len(blocks)-1)
	out = append(out, blocks[:idx-1]...)
	out = append(out, prev)
	out = append(out, blocks[idx+1:]...)
	return out, Position{BlockID: prev.ID, Offset: joint}, true
}

// IsAllSelected 近似判断选区是否覆盖整个文档
// 仅用于把全选删除特化为"重置为单个空段落"，不承担数据完整性职责
func IsAllSelected(blocks []domain.Block, r Range) bool {
	if len(blocks) == 0 {
		return false
	}
	r = NormalizeRange(blocks, r)
	lastLen := len([]rune(blocks[len(blocks)-1].Text))
	return r.Start.BlockID == blocks[0].ID && r.Start.Offset == 0 &&
		r.End.BlockID == blocks[len(blocks)-1].ID && r.End.Offset >= lastLen
}

func clampOffset(offset, max int) int {
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}
