package editor

import (
	"regexp"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

// Shortcut 快捷语法识别结果
type Shortcut struct {
	Type  domain.BlockType
	Level int
}

// numberedPattern 任意序号加点再加单个空格
var numberedPattern = regexp.MustCompile(`^\d+\. $`)

// shortcutExact 精确匹配的触发模式，按优先级排列（标题先于列表）
var shortcutExact = []struct {
	text string
	res  Shortcut
}{
	{"# ", Shortcut{Type: domain.BlockTypeHeading, Level: 1}},
	{"## ", Shortcut{Type: domain.BlockTypeHeading, Level: 2}},
	{"### ", Shortcut{Type: domain.BlockTypeHeading, Level: 3}},
	{"- ", Shortcut{Type: domain.BlockTypeBulletList}},
	{"* ", Shortcut{Type: domain.BlockTypeBulletList}},
	{"> ", Shortcut{Type: domain.BlockTypeQuote}},
	{"``` ", Shortcut{Type: domain.BlockTypeCode}},
}

// Detect 识别 markdown 风格的块类型转换
// 入参是包含即将提交的触发空格的块文本，必须整串精确匹配
func Detect(text string) (Shortcut, bool) {
	for _, p := range shortcutExact {
		if text == p.text {
			return p.res, true
		}
	}
	if numberedPattern.MatchString(text) {
		return Shortcut{Type: domain.BlockTypeNumberedList}, true
	}
	return Shortcut{}, false
}
