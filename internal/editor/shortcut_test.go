package editor

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		input string
		want  Shortcut
		match bool
	}{
		{input: "# ", want: Shortcut{Type: domain.BlockTypeHeading, Level: 1}, match: true},
		{input: "## ", want: Shortcut{Type: domain.BlockTypeHeading, Level: 2}, match: true},
		{input: "### ", want: Shortcut{Type: domain.BlockTypeHeading, Level: 3}, match: true},
		{input: "- ", want: Shortcut{Type: domain.BlockTypeBulletList}, match: true},
		{input: "* ", want: Shortcut{Type: domain.BlockTypeBulletList}, match: true},
		{input: "1. ", want: Shortcut{Type: domain.BlockTypeNumberedList}, match: true},
		{input: "42. ", want: Shortcut{Type: domain.BlockTypeNumberedList}, match: true},
		{input: "> ", want: Shortcut{Type: domain.BlockTypeQuote}, match: true},
		{input: "``` ", want: Shortcut{Type: domain.BlockTypeCode}, match: true},
		// 不命中
		{input: "##  "},   // 两个尾随空格
		{input: " # "},    // 前导空格
		{input: "#### "},  // 超出层级
		{input: "#"},      // 无触发空格
		{input: "1 "},     // 缺少点号
		{input: "1."},     // 无触发空格
		{input: "a# "},    // 非锚定
		{input: "hello "}, // 普通文本
		{input: ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, ok := Detect(tt.input)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// 任意序号的有序列表触发模式都应命中
func TestProperty_DetectNumbered(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("any ordinal followed by dot-space converts to numbered list", prop.ForAll(
		func(n int) bool {
			sc, ok := Detect(fmt.Sprintf("%d. ", n))
			return ok && sc.Type == domain.BlockTypeNumberedList
		},
		gen.IntRange(0, 100000),
	))

	properties.Property("trailing text after trigger never matches", prop.ForAll(
		func(n int, tail string) bool {
			if tail == "" {
				return true
			}
			_, ok := Detect(fmt.Sprintf("%d. %s", n, tail))
			return !ok
		},
		gen.IntRange(0, 1000),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
