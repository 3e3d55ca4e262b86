// Package diff 提供条目文本差异摘要，用于同步冲突日志
package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// Summary 两个文本版本之间的差异摘要
type Summary struct {
	// InsertedChars 新版本新增的字符数
	InsertedChars int
	// DeletedChars 新版本删除的字符数
	DeletedChars int
	// Pretty 人类可读的差异文本
	Pretty string
}

// Changed 是否存在实际差异
func (s Summary) Changed() bool {
	return s.InsertedChars > 0 || s.DeletedChars > 0
}

// Compare 计算 old 到 new 的差异摘要
func Compare(old, new string) Summary {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.InsertedChars += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			s.DeletedChars += len([]rune(d.Text))
		}
	}
	s.Pretty = dmp.DiffPrettyText(diffs)
	return s
}
