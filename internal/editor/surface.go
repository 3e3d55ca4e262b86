package editor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

// Mark 行内格式类型
type Mark string

const (
	MarkBold      Mark = "bold"
	MarkItalic    Mark = "italic"
	MarkUnderline Mark = "underline"
	MarkStrike    Mark = "strike"
	MarkCode      Mark = "code"
	MarkLink      Mark = "link"
)

// markTags 行内格式对应的 HTML 标签
var markTags = map[Mark]string{
	MarkBold:      "b",
	MarkItalic:    "i",
	MarkUnderline: "u",
	MarkStrike:    "s",
	MarkCode:      "code",
}

// Surface 块编辑控制器
// 每个打开的条目一个实例：持有有序块列表，解释按键事件，
// 所有变更经由同一个整表替换入口发出完整快照
type Surface struct {
	blocks  []domain.Block
	current string
	palette *PaletteState
	coord   *Coordinator

	// triggers 命令面板触发前缀，默认仅 "/"
	triggers []string
	// activeTrigger 打开当前面板的触发前缀
	activeTrigger string

	// onChange 变更回调，收到的总是完整一致的块列表快照
	onChange func([]domain.Block)
	logger   *zap.Logger
}

// NewSurface 创建块编辑控制器
// blocks 为受控值，onChange 为回调，宿主决定块列表的持久化去向
func NewSurface(blocks []domain.Block, coord *Coordinator, onChange func([]domain.Block), logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Surface{
		coord:    coord,
		triggers: []string{"/"},
		onChange: onChange,
		logger:   logger,
	}
	// 空白收敛只发生在装载时，编辑过程中的空白块保持原标识
	e := &domain.Entry{Blocks: blocks}
	e.Normalize()
	s.blocks = e.Blocks
	s.current = s.blocks[0].ID
	return s
}

// SetPaletteTriggers 配置命令面板的触发前缀，可以是单字符或别名短语
func (s *Surface) SetPaletteTriggers(triggers ...string) {
	if len(triggers) > 0 {
		s.triggers = triggers
	}
}

// Blocks 返回当前块列表的副本
func (s *Surface) Blocks() []domain.Block {
	out := make([]domain.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Palette 当前命令面板状态，关闭时为 nil
func (s *Surface) Palette() *PaletteState {
	return s.palette
}

// CurrentBlockID 当前块标识
func (s *Surface) CurrentBlockID() string {
	return s.current
}

// SetCurrent 切换当前块
func (s *Surface) SetCurrent(blockID string) {
	if BlockIndex(s.blocks, blockID) >= 0 {
		s.current = blockID
	}
}

// replaceBlocks 唯一的变更入口
// 逐块修复字段后整表替换并发出完整快照，caret 非空时安放光标
// 空白块不做整表收敛：编辑中产生的空块必须保留原标识
func (s *Surface) replaceBlocks(blocks []domain.Block, caret *Position) {
	for i := range blocks {
		blocks[i].Sanitize()
	}
	if len(blocks) == 0 {
		blocks = []domain.Block{domain.NewParagraphBlock()}
	}
	s.blocks = blocks
	if caret != nil {
		if BlockIndex(s.blocks, caret.BlockID) < 0 {
			// 目标块已不存在时退到首块
			caret = &Position{BlockID: s.blocks[0].ID}
		}
		s.current = caret.BlockID
		s.coord.PlaceCaret(caret.BlockID, caret.Offset)
	}
	if s.onChange != nil {
		s.onChange(s.Blocks())
	}
}

// currentBlock 当前块及其下标
func (s *Surface) currentBlock() (int, *domain.Block) {
	idx := BlockIndex(s.blocks, s.current)
	if idx < 0 {
		return -1, nil
	}
	return idx, &s.blocks[idx]
}

// HandleEnter 处理回车
// 面板打开时提交高亮命令而不新建块；否则在当前块之后插入空段落
func (s *Surface) HandleEnter() {
	if s.palette != nil {
		if cmd, ok := s.palette.Current(); ok {
			s.applyCommand(cmd)
		} else {
			s.ClosePalette()
		}
		return
	}

	idx, _ := s.currentBlock()
	if idx < 0 {
		return
	}
	nb := domain.NewParagraphBlock()
	out := make([]domain.Block, 0, len(s.blocks)+1)
	out = append(out, s.blocks[:idx+1]...)
	out = append(out, nb)
	out = append(out, s.blocks[idx+1:]...)
	s.replaceBlocks(out, &Position{BlockID: nb.ID})
}

// HandleBackspaceAtStart 处理块首退格
// 空块被删除且光标落到上一块尾部；唯一块时清空内容而不是拒绝操作；
// 有内容的块并入上一块尾部
func (s *Surface) HandleBackspaceAtStart() {
	if s.palette != nil {
		s.handlePaletteBackspace()
		return
	}

	idx, cur := s.currentBlock()
	if cur == nil {
		return
	}

	if idx == 0 {
		if len(s.blocks) == 1 && cur.Text != "" {
			// 单块文档里清空内容优于拒绝，文档永远不为零块
			b := *cur
			b.Text = ""
			b.RichText = ""
			s.replaceBlocks([]domain.Block{b}, &Position{BlockID: b.ID})
		}
		return
	}

	if cur.Text == "" {
		prev := s.blocks[idx-1]
		out := make([]domain.Block, 0, len(s.blocks)-1)
		out = append(out, s.blocks[:idx]...)
		out = append(out, s.blocks[idx+1:]...)
		s.replaceBlocks(out, &Position{BlockID: prev.ID, Offset: len([]rune(prev.Text))})
		return
	}

	merged, caret, ok := MergeWithPrevious(s.blocks, s.current)
	if !ok {
		return
	}
	s.replaceBlocks(merged, &caret)
}

// HandleArrowVertical 处理块边界处的上下方向键
// up 为 true 表示向上；保持水平偏移并按目标块长度截断
func (s *Surface) HandleArrowVertical(up bool, offset int) {
	if s.palette != nil {
		if up {
			s.palette.MoveUp()
		} else {
			s.palette.MoveDown()
		}
		return
	}

	idx, _ := s.currentBlock()
	if idx < 0 {
		return
	}
	target := idx + 1
	if up {
		target = idx - 1
	}
	if target < 0 || target >= len(s.blocks) {
		return
	}
	tb := s.blocks[target]
	n := len([]rune(tb.Text))
	if offset > n {
		offset = n
	}
	s.current = tb.ID
	s.coord.PlaceCaret(tb.ID, offset)
}

// HandleSpace 处理空格键
// 总是先跑快捷语法识别：命中时吞掉空格并转换块类型，否则正常插入
func (s *Surface) HandleSpace(caretOffset int) {
	if s.palette != nil {
		s.appendPaletteQuery(" ")
		return
	}

	_, cur := s.currentBlock()
	if cur == nil {
		return
	}

	if sc, ok := Detect(cur.Text + " "); ok {
		b := *cur
		b.Type = sc.Type
		b.Level = sc.Level
		b.Text = ""
		b.RichText = ""
		b.Sanitize()
		s.updateBlock(b, &Position{BlockID: b.ID})
		return
	}

	s.InsertText(s.current, caretOffset, " ")
}

// HandleChar 处理普通字符输入
// 块首输入凑齐触发前缀时打开命令面板；面板打开期间字符进入实时查询
func (s *Surface) HandleChar(ch string, caretOffset int) {
	if s.palette != nil {
		s.appendPaletteQuery(ch)
		return
	}

	_, cur := s.currentBlock()
	if cur == nil {
		return
	}

	if caretOffset == len([]rune(cur.Text)) {
		for _, trig := range s.triggers {
			if cur.Text+ch == trig {
				s.InsertText(s.current, caretOffset, ch)
				s.activeTrigger = trig
				s.palette = OpenPalette(s.current)
				return
			}
		}
	}

	s.InsertText(s.current, caretOffset, ch)
}

// appendPaletteQuery 面板打开时把输入并入查询
func (s *Surface) appendPaletteQuery(ch string) {
	query := s.palette.Query + ch
	s.InsertText(s.palette.AnchorBlockID, len([]rune(s.activeTrigger+s.palette.Query)), ch)
	s.palette.SetQuery(query)
}

// handlePaletteBackspace 面板打开时的退格：缩短查询，破坏触发前缀时关闭面板
func (s *Surface) handlePaletteBackspace() {
	if s.palette.Query == "" {
		// 删掉触发前缀本身，多字符别名整体移除
		s.palette = nil
		idx := BlockIndex(s.blocks, s.current)
		if idx >= 0 && strings.HasPrefix(s.blocks[idx].Text, s.activeTrigger) {
			b := s.blocks[idx]
			b.Text = strings.TrimPrefix(b.Text, s.activeTrigger)
			s.updateBlock(b, &Position{BlockID: b.ID})
		}
		return
	}
	runes := []rune(s.palette.Query)
	query := string(runes[:len(runes)-1])
	idx := BlockIndex(s.blocks, s.current)
	if idx >= 0 {
		b := s.blocks[idx]
		br := []rune(b.Text)
		if len(br) > 0 {
			b.Text = string(br[:len(br)-1])
		}
		s.updateBlock(b, &Position{BlockID: b.ID, Offset: len([]rune(b.Text))})
	}
	s.palette.SetQuery(query)
}

// HandleEscape 关闭命令面板，不提交
func (s *Surface) HandleEscape() {
	s.ClosePalette()
}

// ClosePalette 关闭命令面板（点击面板外等价于此）
func (s *Surface) ClosePalette() {
	s.palette = nil
}

// applyCommand 提交面板命令：清空块文本并应用命令的类型与层级
func (s *Surface) applyCommand(cmd Command) {
	idx := BlockIndex(s.blocks, s.palette.AnchorBlockID)
	s.palette = nil
	if idx < 0 {
		return
	}
	b := s.blocks[idx]
	b.Type = cmd.Type
	b.Level = cmd.Level
	b.Text = ""
	b.RichText = ""
	b.Sanitize()
	s.updateBlock(b, &Position{BlockID: b.ID})
}

// InsertText 在块内指定偏移插入文本
func (s *Surface) InsertText(blockID string, offset int, text string) {
	idx := BlockIndex(s.blocks, blockID)
	if idx < 0 {
		return
	}
	b := s.blocks[idx]
	runes := []rune(b.Text)
	offset = clampOffset(offset, len(runes))
	b.Text = string(runes[:offset]) + text + string(runes[offset:])
	b.RichText = ""
	s.updateBlock(b, &Position{BlockID: b.ID, Offset: offset + len([]rune(text))})
}

// DeleteBackward 删除光标前一个字符
func (s *Surface) DeleteBackward(blockID string, offset int) {
	if offset <= 0 {
		s.SetCurrent(blockID)
		s.HandleBackspaceAtStart()
		return
	}
	idx := BlockIndex(s.blocks, blockID)
	if idx < 0 {
		return
	}
	b := s.blocks[idx]
	runes := []rune(b.Text)
	offset = clampOffset(offset, len(runes))
	b.Text = string(runes[:offset-1]) + string(runes[offset:])
	b.RichText = ""
	s.updateBlock(b, &Position{BlockID: b.ID, Offset: offset - 1})
}

// DeleteSelection 删除选区覆盖的内容
// 全选删除特化为重置单个空段落
func (s *Surface) DeleteSelection(r Range) {
	if IsAllSelected(s.blocks, r) {
		nb := domain.NewParagraphBlock()
		s.replaceBlocks([]domain.Block{nb}, &Position{BlockID: nb.ID})
		return
	}
	out, caret := DeleteRange(s.blocks, r)
	s.replaceBlocks(out, &caret)
}

// HandleCopy 提取选区覆盖的文本，不改动文档
func (s *Surface) HandleCopy(r Range) string {
	return CopyRange(s.blocks, r)
}

// HandleCut 提取选区文本并删除选区
func (s *Surface) HandleCut(r Range) string {
	text := CopyRange(s.blocks, r)
	s.DeleteSelection(r)
	return text
}

// HandlePaste 在指定位置粘贴文本
// 多行文本按换行拆开：首行并入当前块，其余各占一个新段落块
func (s *Surface) HandlePaste(pos Position, text string) {
	if text == "" {
		return
	}
	out, caret := PasteText(s.blocks, pos, text)
	s.replaceBlocks(out, &caret)
}

// ApplyInlineFormat 对当前选区应用行内格式，保持光标位置
// link 需要 url；选区折叠时链接插入新文本，其余格式无操作
func (s *Surface) ApplyInlineFormat(mark Mark, r Range, url string) {
	r = NormalizeRange(s.blocks, r)
	if r.Start.BlockID != r.End.BlockID {
		s.logger.Warn("inline format over cross-block selection not supported",
			zap.String("mark", string(mark)))
		return
	}
	idx := BlockIndex(s.blocks, r.Start.BlockID)
	if idx < 0 {
		return
	}
	b := s.blocks[idx]
	runes := []rune(b.Text)
	start := clampOffset(r.Start.Offset, len(runes))
	end := clampOffset(r.End.Offset, len(runes))

	if start == end {
		if mark == MarkLink && url != "" {
			// 无选区时在光标处插入链接文本
			b.Text = string(runes[:start]) + url + string(runes[start:])
			b.RichText = renderRich(string(runes[:start]), url, string(runes[start:]), mark, url)
			s.updateBlock(b, &Position{BlockID: b.ID, Offset: start + len([]rune(url))})
		}
		return
	}

	b.RichText = renderRich(string(runes[:start]), string(runes[start:end]), string(runes[end:]), mark, url)
	s.updateBlock(b, &Position{BlockID: b.ID, Offset: end})
}

// renderRich 把选中片段用格式标签包裹
func renderRich(prefix, selected, suffix string, mark Mark, url string) string {
	if mark == MarkLink {
		return fmt.Sprintf("%s<a href=%q>%s</a>%s", prefix, url, selected, suffix)
	}
	tag := markTags[mark]
	return fmt.Sprintf("%s<%s>%s</%s>%s", prefix, tag, selected, tag, suffix)
}

// updateBlock 替换单个块并走整表替换入口
func (s *Surface) updateBlock(b domain.Block, caret *Position) {
	idx := BlockIndex(s.blocks, b.ID)
	if idx < 0 {
		return
	}
	out := make([]domain.Block, len(s.blocks))
	copy(out, s.blocks)
	out[idx] = b
	s.replaceBlocks(out, caret)
}

// Ordinals 计算有序列表块的可见序号
// 序号按同类型连续相邻块递增，被其他类型打断后重新从 1 开始
func (s *Surface) Ordinals() map[string]int {
	out := make(map[string]int)
	run := 0
	for i := range s.blocks {
		if s.blocks[i].Type == domain.BlockTypeNumberedList {
			run++
			out[s.blocks[i].ID] = run
		} else {
			run = 0
		}
	}
	return out
}
