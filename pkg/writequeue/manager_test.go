package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_SameEntryFIFO(t *testing.T) {
	m := New(nil, zap.NewNop())
	defer func() { _ = m.Shutdown(context.Background()) }()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		// 同一条目的操作串行执行，提交方阻塞等待结果
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "2026-01-02", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	require.Len(t, order, 10)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}

func TestManager_DistinctEntriesIndependent(t *testing.T) {
	m := New(nil, zap.NewNop())
	defer func() { _ = m.Shutdown(context.Background()) }()

	blocked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "2026-01-02", func() error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked

	// 其他条目不受阻塞影响
	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), "2026-01-03", func() error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("independent queue blocked")
	}
	close(release)
}

func TestManager_ShutdownRejectsNewWork(t *testing.T) {
	m := New(nil, zap.NewNop())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.IsClosed())

	err := m.Execute(context.Background(), "2026-01-02", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}

func TestManager_QueueFull(t *testing.T) {
	m := New(&Config{QueueCapacity: 1, WriteTimeout: time.Second}, zap.NewNop())
	defer func() { _ = m.Shutdown(context.Background()) }()

	blocked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func() error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked

	// 占满容量为 1 的队列
	go func() {
		_ = m.Execute(context.Background(), "k", func() error { return nil })
	}()
	time.Sleep(50 * time.Millisecond)

	err := m.Execute(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	close(release)
}
