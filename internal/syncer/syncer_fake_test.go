package syncer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/cache"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
)

// fakeRemote 内存远端存储假实现
type fakeRemote struct {
	mu      sync.Mutex
	entries map[string]*domain.RemoteEntry
	nextID  int

	createErr error
	updateErr error
	deleteErr error
	listErr   error

	createCalls int
	updateCalls int
	deleteCalls int

	lastListLimit int

	// onCreate 创建成功后、返回前的回调，用于模拟竞态
	onCreate func(id string)
}

var _ domain.RemoteStore = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{entries: make(map[string]*domain.RemoteEntry)}
}

func (f *fakeRemote) CreateEntry(_ context.Context, draft *domain.Entry) (*domain.RemoteEntry, error) {
	f.mu.Lock()
	f.createCalls++
	if f.createErr != nil {
		err := f.createErr
		f.mu.Unlock()
		return nil, err
	}
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	now := timex.Now()
	re := &domain.RemoteEntry{
		ID:        id,
		Date:      draft.Date,
		Blocks:    append([]domain.Block(nil), draft.Blocks...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.entries[id] = re
	hook := f.onCreate
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return re, nil
}

func (f *fakeRemote) UpdateEntry(_ context.Context, id string, blocks []domain.Block) (*domain.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	re, ok := f.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	re.Blocks = append([]domain.Block(nil), blocks...)
	re.UpdatedAt = timex.Now()
	return re, nil
}

func (f *fakeRemote) DeleteEntry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRemote) ListEntries(_ context.Context, limit int) ([]*domain.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.RemoteEntry, 0, len(f.entries))
	for _, re := range f.entries {
		out = append(out, re)
	}
	return out, nil
}

// corruptingKV 让前 N 次写入落盘为被篡改的内容，模拟损坏的本地存储
type corruptingKV struct {
	cache.KV
	mu      sync.Mutex
	remain  int
	corrupt func([]byte) []byte
	sets    int
}

func (c *corruptingKV) Set(key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	doCorrupt := c.remain > 0
	if doCorrupt {
		c.remain--
	}
	c.mu.Unlock()
	if doCorrupt {
		value = c.corrupt(value)
	}
	return c.KV.Set(key, value)
}

// dropChars 删掉 JSON 字符串值内的部分字符，保持 JSON 合法
func dropChars(sub string) func([]byte) []byte {
	return func(b []byte) []byte {
		return bytes.Replace(b, []byte(sub), []byte(""), 1)
	}
}

// testClock 可推进的测试时钟
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestManager 组装测试用管理器
// 小编辑阈值设为 1 关闭近即时同步，让测试自行控制刷写时机
func newTestManager(kv cache.KV, remote domain.RemoteStore) (*Manager, *testClock) {
	clock := newTestClock()
	m := New(Config{
		SmallEditBlockThreshold: 1,
		ProtectionWindow:        6 * time.Second,
	}, kv, remote, nil)
	m.now = clock.now
	return m, clock
}
