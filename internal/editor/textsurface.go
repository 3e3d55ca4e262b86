// Package editor 实现块结构富文本编辑引擎
// 包含快捷语法识别、命令面板、光标协调器和块编辑控制器
package editor

import "github.com/pkg/errors"

// Position 块内的线性字符位置
type Position struct {
	BlockID string
	Offset  int
}

// Range 跨块选区，Start 和 End 按文档顺序不作保证，由使用方归一
type Range struct {
	Start Position
	End   Position
}

// IsCollapsed 选区是否折叠为光标
func (r Range) IsCollapsed() bool {
	return r.Start == r.End
}

// ErrBlockNotMounted 目标块尚未挂载到宿主编辑容器
// 属于渲染时序竞态，调用方应当记录并安排一次渲染后重试
var ErrBlockNotMounted = errors.New("editor: block element not mounted")

// TextSurface 宿主文本编辑容器的抽象
// 光标协调器只依赖该接口，算法可针对假实现做单元测试
type TextSurface interface {
	// Selection 返回当前活动选区，选区不在任何块内时 ok 为 false
	Selection() (r Range, ok bool)

	// SetCaret 在块内指定偏移安放折叠光标
	// 目标块未挂载时返回 ErrBlockNotMounted
	SetCaret(pos Position) error

	// SetRange 设置跨块选区，端点必须已按文档顺序排列
	SetRange(r Range) error

	// BlockAtPoint 命中测试：返回坐标处的块位置
	BlockAtPoint(x, y float64) (Position, bool)

	// SetEditable 启用或禁用全部块的原生编辑
	// 跨块拖拽选择期间需要禁用，防止宿主自行修改内容
	SetEditable(enabled bool)

	// BlockTextLength 块的可见文本长度，块未挂载时 ok 为 false
	BlockTextLength(blockID string) (n int, ok bool)
}

// RenderScheduler 渲染后回调原语
// 替代散落的固定延迟：语义是"在宿主反映新块列表之后执行"
type RenderScheduler interface {
	AfterRender(fn func())
}

// ImmediateScheduler 同步执行的调度器，用于测试
type ImmediateScheduler struct{}

func (ImmediateScheduler) AfterRender(fn func()) { fn() }
