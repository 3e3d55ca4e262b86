package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_EmptyQueryReturnsCatalog(t *testing.T) {
	got := Match("")
	want := Catalog()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
	}
}

func TestMatch_Ranking(t *testing.T) {
	tests := []struct {
		query   string
		topID   string
		present bool
	}{
		{query: "h1", topID: "h1", present: true},
		{query: "h2", topID: "h2", present: true},
		{query: "heading 1", topID: "h1", present: true},
		{query: "head 3", topID: "h3", present: true},
		{query: "heading 2", topID: "h2", present: true},
		{query: "bullet", topID: "bullet-list", present: true},
		{query: "numbered", topID: "numbered-list", present: true},
		{query: "quote", topID: "quote", present: true},
		{query: "para", topID: "paragraph", present: true},
		{query: "#", topID: "h1", present: true},
		{query: "xyzzy", present: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Match(tt.query)
			if !tt.present {
				assert.Empty(t, got)
				return
			}
			require.NotEmpty(t, got)
			assert.Equal(t, tt.topID, got[0].ID)
		})
	}
}

func TestMatch_NoMatchIsExcludedNotLast(t *testing.T) {
	got := Match("head")
	for _, cmd := range got {
		// 不相关命令被整体剔除而不是排在末尾
		assert.NotEqual(t, "image", cmd.ID)
	}
}

func TestMatch_AbbrevBeatsPrefixTier(t *testing.T) {
	// "h1" 对 Heading 1 的缩写分值须高于任何 starts-with 档位
	got := Match("h1")
	require.NotEmpty(t, got)
	assert.Equal(t, "h1", got[0].ID)
}

func TestPaletteState_Keyboard(t *testing.T) {
	p := OpenPalette("block-1")
	require.Equal(t, len(Catalog()), len(p.Results))
	assert.Equal(t, 0, p.Selected)

	// 查询变化后总是回到首位
	p.MoveDown()
	p.MoveDown()
	p.SetQuery("h")
	assert.Equal(t, 0, p.Selected)

	// 上下循环回绕
	n := len(p.Results)
	p.MoveUp()
	assert.Equal(t, n-1, p.Selected)
	p.MoveDown()
	assert.Equal(t, 0, p.Selected)

	cmd, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, p.Results[0].ID, cmd.ID)
}

func TestPaletteState_EmptyResults(t *testing.T) {
	p := OpenPalette("block-1")
	p.SetQuery("xyzzy")
	assert.Empty(t, p.Results)

	// 空结果下键盘操作不崩溃
	p.MoveDown()
	p.MoveUp()
	_, ok := p.Current()
	assert.False(t, ok)
}
