package editor

import (
	"sort"
	"strings"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

// Command 命令面板中的块转换命令描述
type Command struct {
	ID          string
	Label       string
	Description string
	Glyph       string
	Type        domain.BlockType
	Level       int
	Icon        string
}

// 匹配分值档位
const (
	scoreExact         = 1000
	scoreAbbrev        = 950
	scoreAbbrevLoose   = 940
	scoreLabelPrefix   = 900
	scoreGlyphPrefix   = 850
	scoreLabelContains = 500
	scoreGlyphContains = 450
	scoreDescContains  = 200
)

// catalog 固定有序的命令清单
var catalog = []Command{
	{ID: "h1", Label: "Heading 1", Description: "Large section heading", Glyph: "#", Type: domain.BlockTypeHeading, Level: 1, Icon: "heading-1"},
	{ID: "h2", Label: "Heading 2", Description: "Medium section heading", Glyph: "##", Type: domain.BlockTypeHeading, Level: 2, Icon: "heading-2"},
	{ID: "h3", Label: "Heading 3", Description: "Small section heading", Glyph: "###", Type: domain.BlockTypeHeading, Level: 3, Icon: "heading-3"},
	{ID: "paragraph", Label: "Paragraph", Description: "Plain body text", Glyph: "P", Type: domain.BlockTypeParagraph, Icon: "text"},
	{ID: "bullet-list", Label: "Bullet List", Description: "Unordered list item", Glyph: "-", Type: domain.BlockTypeBulletList, Icon: "list"},
	{ID: "numbered-list", Label: "Numbered List", Description: "Ordered list item", Glyph: "1.", Type: domain.BlockTypeNumberedList, Icon: "list-ordered"},
	{ID: "quote", Label: "Quote", Description: "Block quotation", Glyph: ">", Type: domain.BlockTypeQuote, Icon: "quote"},
	{ID: "code", Label: "Code Block", Description: "Monospaced code snippet", Glyph: "```", Type: domain.BlockTypeCode, Icon: "code"},
	{ID: "image", Label: "Image", Description: "Embed an image by URL", Glyph: "img", Type: domain.BlockTypeImage, Icon: "image"},
	{ID: "todo", Label: "Todo", Description: "Task with a checkbox", Glyph: "[]", Type: domain.BlockTypeTodo, Icon: "check-square"},
}

// abbrevTable 领域缩写到命令标识的映射
var abbrevTable = map[string]string{
	"h1":       "h1",
	"h2":       "h2",
	"h3":       "h3",
	"bullet":   "bullet-list",
	"numbered": "numbered-list",
	"ordered":  "numbered-list",
	"ol":       "numbered-list",
	"ul":       "bullet-list",
	"img":      "image",
	"``":       "code",
}

// abbrevLooseTable 带空格的宽松缩写形式
var abbrevLooseTable = map[string]string{
	"head 1":    "h1",
	"head 2":    "h2",
	"head 3":    "h3",
	"heading 1": "h1",
	"heading 2": "h2",
	"heading 3": "h3",
}

// Catalog 返回完整命令清单的副本
func Catalog() []Command {
	out := make([]Command, len(catalog))
	copy(out, catalog)
	return out
}

// commandScore 计算单条命令对查询的匹配分值，0 表示不匹配
func commandScore(cmd Command, query string) int {
	label := strings.ToLower(cmd.Label)
	glyph := strings.ToLower(cmd.Glyph)
	desc := strings.ToLower(cmd.Description)

	if query == label || query == glyph {
		return scoreExact
	}
	if id, ok := abbrevTable[query]; ok && id == cmd.ID {
		return scoreAbbrev
	}
	if id, ok := abbrevLooseTable[query]; ok && id == cmd.ID {
		return scoreAbbrevLoose
	}
	if strings.HasPrefix(label, query) {
		return scoreLabelPrefix
	}
	if strings.HasPrefix(glyph, query) {
		return scoreGlyphPrefix
	}
	if strings.Contains(label, query) {
		return scoreLabelContains
	}
	if strings.Contains(glyph, query) {
		return scoreGlyphContains
	}
	if strings.Contains(desc, query) {
		return scoreDescContains
	}
	return 0
}

// Match 按分值对命令清单排序过滤
// 空查询返回完整清单的自然顺序，零分命令被整体剔除
func Match(query string) []Command {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Catalog()
	}

	type scored struct {
		cmd   Command
		score int
		order int
	}
	var matched []scored
	for i, cmd := range catalog {
		if s := commandScore(cmd, query); s > 0 {
			matched = append(matched, scored{cmd: cmd, score: s, order: i})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].order < matched[j].order
	})

	out := make([]Command, len(matched))
	for i, m := range matched {
		out[i] = m.cmd
	}
	return out
}

// PaletteState 命令面板的打开状态
// 面板关闭时为 nil，不单独维护 open 标志
type PaletteState struct {
	// AnchorBlockID 触发面板的块
	AnchorBlockID string
	// Query 触发字符之后的实时查询
	Query string
	// Results 当前查询的匹配结果
	Results []Command
	// Selected 高亮的结果下标，查询变化后总是回到 0
	Selected int
}

// OpenPalette 在指定块上打开命令面板
func OpenPalette(blockID string) *PaletteState {
	return &PaletteState{
		AnchorBlockID: blockID,
		Results:       Match(""),
	}
}

// SetQuery 更新查询并重置高亮到首位
func (p *PaletteState) SetQuery(query string) {
	p.Query = query
	p.Results = Match(query)
	p.Selected = 0
}

// MoveDown 高亮下移，循环回绕
func (p *PaletteState) MoveDown() {
	if len(p.Results) == 0 {
		return
	}
	p.Selected = (p.Selected + 1) % len(p.Results)
}

// MoveUp 高亮上移，循环回绕
func (p *PaletteState) MoveUp() {
	if len(p.Results) == 0 {
		return
	}
	p.Selected = (p.Selected - 1 + len(p.Results)) % len(p.Results)
}

// Current 当前高亮的命令
func (p *PaletteState) Current() (Command, bool) {
	if p.Selected < 0 || p.Selected >= len(p.Results) {
		return Command{}, false
	}
	return p.Results[p.Selected], true
}
