// Package safeclose 提供优雅关闭信号的统一管理
// 各后台组件通过 Attach 挂载关闭回调，主流程通过 SendCloseSignal 广播关闭
package safeclose

import (
	"sync"
)

// SafeClose 关闭信号管理器
type SafeClose struct {
	mu sync.Mutex

	closeSignal chan struct{}
	closedOnce  sync.Once

	wg  sync.WaitGroup
	err error
}

// New 创建 SafeClose 实例
func New() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach 挂载一个后台例程
// f 在新 goroutine 中执行，收到 closeSignal 后应自行退出并调用 done
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	done := func() {
		s.wg.Done()
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal 广播关闭信号
// err 记录触发关闭的原因，可以为 nil；只有第一次调用生效
func (s *SafeClose) SendCloseSignal(err error) {
	s.closedOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closeSignal)
	})
}

// ReceiveCloseSignal 返回关闭信号通道
func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed 等待所有挂载的例程退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
