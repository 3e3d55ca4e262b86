package editor

import (
	"fmt"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

// fakeTextSurface 针对协调器算法的宿主容器假实现
type fakeTextSurface struct {
	blocksFn func() []domain.Block

	caret     *Position
	rng       *Range
	editable  bool
	unmounted map[string]bool
	hitTable  map[[2]int]Position

	caretCalls int
	rangeCalls int
}

var _ TextSurface = (*fakeTextSurface)(nil)

func newFakeSurface(blocksFn func() []domain.Block) *fakeTextSurface {
	return &fakeTextSurface{
		blocksFn:  blocksFn,
		editable:  true,
		unmounted: map[string]bool{},
		hitTable:  map[[2]int]Position{},
	}
}

func (f *fakeTextSurface) Selection() (Range, bool) {
	if f.rng != nil {
		return *f.rng, true
	}
	if f.caret != nil {
		return Range{Start: *f.caret, End: *f.caret}, true
	}
	return Range{}, false
}

func (f *fakeTextSurface) SetCaret(pos Position) error {
	f.caretCalls++
	if f.unmounted[pos.BlockID] {
		return ErrBlockNotMounted
	}
	p := pos
	f.caret = &p
	f.rng = nil
	return nil
}

func (f *fakeTextSurface) SetRange(r Range) error {
	f.rangeCalls++
	rr := r
	f.rng = &rr
	f.caret = nil
	return nil
}

func (f *fakeTextSurface) BlockAtPoint(x, y float64) (Position, bool) {
	pos, ok := f.hitTable[[2]int{int(x), int(y)}]
	return pos, ok
}

func (f *fakeTextSurface) SetEditable(enabled bool) {
	f.editable = enabled
}

func (f *fakeTextSurface) BlockTextLength(blockID string) (int, bool) {
	for _, b := range f.blocksFn() {
		if b.ID == blockID {
			return len([]rune(b.Text)), true
		}
	}
	return 0, false
}

// mkBlocks 构造测试块序列，文本依次给定
func mkBlocks(texts ...string) []domain.Block {
	out := make([]domain.Block, len(texts))
	for i, txt := range texts {
		out[i] = domain.Block{
			ID:   fmt.Sprintf("b%d", i+1),
			Type: domain.BlockTypeParagraph,
			Text: txt,
		}
	}
	return out
}
