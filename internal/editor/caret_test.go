package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
)

func TestMergeWithPrevious(t *testing.T) {
	blocks := mkBlocks("Hello", " World")

	out, caret, ok := MergeWithPrevious(blocks, "b2")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "Hello World", out[0].Text)
	assert.Equal(t, "b1", caret.BlockID)
	assert.Equal(t, 5, caret.Offset)
}

func TestMergeWithPrevious_FirstBlock(t *testing.T) {
	blocks := mkBlocks("Hello")
	_, _, ok := MergeWithPrevious(blocks, "b1")
	assert.False(t, ok)
}

func TestDeleteRange_CrossBlock(t *testing.T) {
	blocks := mkBlocks("ABCDE", "FGHIJ")
	r := Range{
		Start: Position{BlockID: "b1", Offset: 3},
		End:   Position{BlockID: "b2", Offset: 2},
	}

	out, caret := DeleteRange(blocks, r)
	require.Len(t, out, 1)
	assert.Equal(t, "ABCHIJ", out[0].Text)
	assert.Equal(t, "b1", caret.BlockID)
	assert.Equal(t, 3, caret.Offset)
}

func TestDeleteRange_MiddleBlocksRemoved(t *testing.T) {
	blocks := mkBlocks("one", "two", "three", "four")
	r := Range{
		Start: Position{BlockID: "b1", Offset: 1},
		End:   Position{BlockID: "b4", Offset: 2},
	}

	out, caret := DeleteRange(blocks, r)
	require.Len(t, out, 1)
	assert.Equal(t, "o"+"ur", out[0].Text)
	assert.Equal(t, 1, caret.Offset)
}

func TestDeleteRange_ReversedEndpoints(t *testing.T) {
	blocks := mkBlocks("ABCDE", "FGHIJ")
	// 反向拖拽：End 在 Start 之前
	r := Range{
		Start: Position{BlockID: "b2", Offset: 2},
		End:   Position{BlockID: "b1", Offset: 3},
	}

	out, _ := DeleteRange(blocks, r)
	require.Len(t, out, 1)
	assert.Equal(t, "ABCHIJ", out[0].Text)
}

func TestDeleteRange_SameBlock(t *testing.T) {
	blocks := mkBlocks("ABCDE")
	r := Range{
		Start: Position{BlockID: "b1", Offset: 1},
		End:   Position{BlockID: "b1", Offset: 4},
	}

	out, caret := DeleteRange(blocks, r)
	require.Len(t, out, 1)
	assert.Equal(t, "AE", out[0].Text)
	assert.Equal(t, 1, caret.Offset)
}

func TestIsAllSelected(t *testing.T) {
	blocks := mkBlocks("Hello", "World")

	full := Range{
		Start: Position{BlockID: "b1", Offset: 0},
		End:   Position{BlockID: "b2", Offset: 5},
	}
	assert.True(t, IsAllSelected(blocks, full))

	partial := Range{
		Start: Position{BlockID: "b1", Offset: 0},
		End:   Position{BlockID: "b2", Offset: 3},
	}
	assert.False(t, IsAllSelected(blocks, partial))
}

func TestCoordinator_PlaceCaret_ClampsOffset(t *testing.T) {
	blocks := mkBlocks("Hello")
	fs := newFakeSurface(func() []domain.Block { return blocks })
	c := NewCoordinator(fs, ImmediateScheduler{}, zap.NewNop())

	c.PlaceCaret("b1", 99)
	require.NotNil(t, fs.caret)
	assert.Equal(t, 5, fs.caret.Offset)

	c.PlaceCaret("b1", -3)
	assert.Equal(t, 0, fs.caret.Offset)
}

func TestCoordinator_PlaceCaret_RetriesAfterRender(t *testing.T) {
	blocks := mkBlocks("Hello")
	fs := newFakeSurface(func() []domain.Block { return blocks })

	// 渲染后回调先让块挂载再执行，模拟自愈的时序竞态
	sched := &deferredScheduler{}
	c := NewCoordinator(fs, sched, zap.NewNop())

	fs.unmounted["b1"] = true
	c.PlaceCaret("b1", 2)
	assert.Nil(t, fs.caret)

	fs.unmounted["b1"] = false
	sched.flush()
	require.NotNil(t, fs.caret)
	assert.Equal(t, 2, fs.caret.Offset)
	assert.Equal(t, 2, fs.caretCalls)
}

func TestCoordinator_PlaceCaret_NeverPanics(t *testing.T) {
	fs := newFakeSurface(func() []domain.Block { return nil })
	c := NewCoordinator(fs, ImmediateScheduler{}, zap.NewNop())

	// 目标块始终不存在也只记录警告
	fs.unmounted["ghost"] = true
	assert.NotPanics(t, func() { c.PlaceCaret("ghost", 0) })
}

func TestCoordinator_CrossBlockDrag(t *testing.T) {
	blocks := mkBlocks("Hello", "World")
	fs := newFakeSurface(func() []domain.Block { return blocks })
	fs.hitTable[[2]int{10, 10}] = Position{BlockID: "b1", Offset: 2}
	fs.hitTable[[2]int{10, 50}] = Position{BlockID: "b2", Offset: 3}

	c := NewCoordinator(fs, ImmediateScheduler{}, zap.NewNop())
	c.BeginDrag(10, 10)
	c.UpdateDrag(blocks, 10, 50)

	// 跨块拖拽期间禁用原生编辑
	assert.False(t, fs.editable)
	require.NotNil(t, fs.rng)
	assert.Equal(t, Position{BlockID: "b1", Offset: 2}, fs.rng.Start)
	assert.Equal(t, Position{BlockID: "b2", Offset: 3}, fs.rng.End)

	c.EndDrag()
	assert.True(t, fs.editable)
}

func TestCoordinator_ReversedDragSwapsEndpoints(t *testing.T) {
	blocks := mkBlocks("Hello", "World")
	fs := newFakeSurface(func() []domain.Block { return blocks })
	fs.hitTable[[2]int{10, 50}] = Position{BlockID: "b2", Offset: 3}
	fs.hitTable[[2]int{10, 10}] = Position{BlockID: "b1", Offset: 2}

	c := NewCoordinator(fs, ImmediateScheduler{}, zap.NewNop())
	// 从下往上拖
	c.BeginDrag(10, 50)
	c.UpdateDrag(blocks, 10, 10)

	require.NotNil(t, fs.rng)
	assert.Equal(t, "b1", fs.rng.Start.BlockID)
	assert.Equal(t, "b2", fs.rng.End.BlockID)
}

// deferredScheduler 收集渲染后回调，由测试决定何时执行
type deferredScheduler struct {
	fns []func()
}

func (d *deferredScheduler) AfterRender(fn func()) {
	d.fns = append(d.fns, fn)
}

func (d *deferredScheduler) flush() {
	fns := d.fns
	d.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func TestCopyRange_SameBlock(t *testing.T) {
	blocks := mkBlocks("Hello World")
	r := Range{Start: Position{BlockID: "b1", Offset: 6}, End: Position{BlockID: "b1", Offset: 11}}
	assert.Equal(t, "World", CopyRange(blocks, r))
}

func TestCopyRange_ReversedEndpoints(t *testing.T) {
	blocks := mkBlocks("Hello", "mid", "World")
	r := Range{Start: Position{BlockID: "b3", Offset: 2}, End: Position{BlockID: "b1", Offset: 3}}
	assert.Equal(t, "lo\nmid\nWo", CopyRange(blocks, r))
}

func TestPasteText_AtBlockBoundaries(t *testing.T) {
	blocks := mkBlocks("World")

	out, caret := PasteText(blocks, Position{BlockID: "b1", Offset: 0}, "Hello ")
	require.Len(t, out, 1)
	assert.Equal(t, "Hello World", out[0].Text)
	assert.Equal(t, 6, caret.Offset)

	out, caret = PasteText(blocks, Position{BlockID: "b1", Offset: 5}, "\nnext")
	require.Len(t, out, 2)
	assert.Equal(t, "World", out[0].Text)
	assert.Equal(t, "next", out[1].Text)
	assert.Equal(t, out[1].ID, caret.BlockID)
	assert.Equal(t, 4, caret.Offset)
}

func TestPasteText_UnknownBlockNoop(t *testing.T) {
	blocks := mkBlocks("Hello")
	out, _ := PasteText(blocks, Position{BlockID: "missing"}, "x")
	assert.Equal(t, blocks, out)
}
