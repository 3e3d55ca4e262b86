package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/cache"
)

func textBlocks(texts ...string) []domain.Block {
	out := make([]domain.Block, len(texts))
	for i, txt := range texts {
		out[i] = domain.Block{ID: domain.NewBlockID(), Type: domain.BlockTypeParagraph, Text: txt}
	}
	return out
}

func TestManager_CreateReturnsInSameTick(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)

	// 临时标识，单个空段落，已落本地缓存，未碰网络
	assert.True(t, domain.IsTempID(e.ID))
	require.Len(t, e.Blocks, 1)
	assert.Equal(t, domain.BlockTypeParagraph, e.Blocks[0].Type)
	assert.Equal(t, 0, remote.createCalls)

	cached, err := m.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, cached.ID)
}

func TestManager_UpdateReadBackVerification(t *testing.T) {
	// 第一次写入被篡改：读回字符数不符，必须触发重试后成功
	kv := &corruptingKV{KV: cache.NewMemory(), corrupt: dropChars("llo")}
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	kv.remain = 1
	setsBefore := kv.sets

	err = m.Update(context.Background(), e.ID, textBlocks("Hello"))
	require.NoError(t, err)
	// 篡改的首次写入之后至少重写了一次
	assert.GreaterOrEqual(t, kv.sets-setsBefore, 2)

	cached, err := m.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cached.CharCount())
}

func TestManager_UpdateIntegrityHardFailure(t *testing.T) {
	// 所有写入都被篡改：重试耗尽后必须上抛硬错误而不是静默丢内容
	kv := &corruptingKV{KV: cache.NewMemory(), remain: 1 << 30, corrupt: dropChars("llo")}
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	id := "7"
	seed := &domain.Entry{ID: id, Date: "2024-01-01", Blocks: textBlocks("seed")}
	require.NoError(t, cache.SetJSON(kv.KV, entryKey(id), seed))

	err := m.Update(context.Background(), id, textBlocks("Hello"))
	assert.ErrorIs(t, err, ErrIntegrityCheckFailed)
}

func TestManager_SweepConfirmsCreateAndSwapsID(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	tempID := e.ID
	require.NoError(t, m.Update(context.Background(), tempID, textBlocks("Hello")))

	m.Sweep(context.Background())

	// 远端已创建，临时缓存键被换成远端标识
	assert.Equal(t, 1, remote.createCalls)
	_, err = m.store.get(tempID)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	confirmed, err := m.Get(tempID) // 旧标识经别名重定向
	require.NoError(t, err)
	assert.False(t, domain.IsTempID(confirmed.ID))
	assert.Equal(t, "Hello", confirmed.Blocks[0].Text)
	assert.Equal(t, 0, m.Status().PendingJobs)
}

func TestManager_TombstoneAbortsPendingCreate(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	require.NoError(t, m.Delete(context.Background(), e.ID))

	m.Sweep(context.Background())

	// 创建任务被墓碑中止，远端从未收到调用
	assert.Equal(t, 0, remote.createCalls)
	assert.Equal(t, 0, m.Status().PendingJobs)
}

func TestManager_CompensatingDeleteWhenTombstonedMidCreate(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)

	// 创建落地后、确认前条目被本地删除
	remote.onCreate = func(string) {
		m.store.addTombstone(e.ID)
	}
	m.Sweep(context.Background())

	assert.Equal(t, 1, remote.createCalls)
	assert.Equal(t, 1, remote.deleteCalls)
	remote.mu.Lock()
	assert.Empty(t, remote.entries)
	remote.mu.Unlock()
}

func TestManager_NoClobberOfProtectedEntry(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)

	id := "42"
	local := &domain.Entry{
		ID: id, Date: "2024-01-01",
		Blocks:    textBlocks("local edit"),
		UpdatedAt: timexNow(clock.now()),
	}
	require.NoError(t, m.store.putVerified(local))
	m.mu.Lock()
	m.markActive(id)
	m.mu.Unlock()

	// 远端版本严格更新，但条目在保护窗口内
	remote.entries[id] = &domain.RemoteEntry{
		ID: id, Date: "2024-01-01",
		Blocks:    textBlocks("remote overwrite"),
		UpdatedAt: timexNow(clock.now().Add(time.Minute)),
	}
	require.NoError(t, m.PullSync(context.Background()))

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "local edit", got.Blocks[0].Text)

	// 窗口过期后，严格更新的远端版本获胜
	clock.advance(time.Minute)
	require.NoError(t, m.PullSync(context.Background()))
	got, err = m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "remote overwrite", got.Blocks[0].Text)
}

func TestManager_EqualTimestampKeepsLocal(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)

	id := "42"
	ts := timexNow(clock.now())
	require.NoError(t, m.store.putVerified(&domain.Entry{
		ID: id, Date: "2024-01-01", Blocks: textBlocks("local"), UpdatedAt: ts,
	}))
	remote.entries[id] = &domain.RemoteEntry{
		ID: id, Date: "2024-01-01", Blocks: textBlocks("remote"), UpdatedAt: ts,
	}

	require.NoError(t, m.PullSync(context.Background()))
	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "local", got.Blocks[0].Text)
}

func TestManager_PullAddsNewRemoteEntries(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)

	remote.entries["9"] = &domain.RemoteEntry{
		ID: "9", Date: "2024-01-02",
		Blocks:    textBlocks("from remote"),
		UpdatedAt: timexNow(clock.now()),
	}
	require.NoError(t, m.PullSync(context.Background()))

	got, err := m.Get("9")
	require.NoError(t, err)
	assert.Equal(t, "from remote", got.Blocks[0].Text)
}

func TestManager_DeleteTombstoneBlocksResurrection(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)

	id := "42"
	require.NoError(t, m.store.putVerified(&domain.Entry{
		ID: id, Date: "2024-01-01", Blocks: textBlocks("doomed"), UpdatedAt: timexNow(clock.now()),
	}))
	m.mu.Lock()
	m.jobs[id] = &job{kind: jobUpdate, entryID: id, snapshot: &domain.Entry{ID: id}}
	m.mu.Unlock()

	// 删除立即清掉缓存和待同步任务
	require.NoError(t, m.Delete(context.Background(), id))
	_, err := m.store.get(id)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	m.mu.Lock()
	j, hasJob := m.jobs[id]
	m.mu.Unlock()
	require.True(t, hasJob) // 更新任务被替换为删除任务
	assert.Equal(t, jobDelete, j.kind)

	// 墓碑存在期间拉取不会复活条目
	remote.entries[id] = &domain.RemoteEntry{
		ID: id, Date: "2024-01-01",
		Blocks:    textBlocks("resurrected"),
		UpdatedAt: timexNow(clock.now().Add(time.Hour)),
	}
	require.NoError(t, m.PullSync(context.Background()))
	_, err = m.store.get(id)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	// 远端删除成功后墓碑才被清除
	m.Sweep(context.Background())
	assert.Equal(t, 1, remote.deleteCalls)
	assert.False(t, m.store.isTombstoned(id))
}

func TestManager_DeleteTempIDNeverCallsNetwork(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	require.NoError(t, m.Delete(context.Background(), e.ID))

	m.Sweep(context.Background())
	assert.Equal(t, 0, remote.deleteCalls)
	assert.True(t, m.store.isTombstoned(e.ID))
}

func TestManager_DuplicateReconciliation(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)

	older := &domain.Entry{
		ID: "42", Date: "2024-01-01",
		Blocks:    textBlocks("stale copy"),
		UpdatedAt: timexNow(clock.now().Add(-time.Hour)),
	}
	newer := &domain.Entry{
		ID: "42", Date: "2024-01-01",
		Blocks:    textBlocks("fresh copy"),
		UpdatedAt: timexNow(clock.now()),
	}
	// 换号竞态的残留：临时键和远端键都指向同一条目标识
	require.NoError(t, cache.SetJSON(kv, entryKey("temp-123-abcd"), older))
	require.NoError(t, cache.SetJSON(kv, entryKey("42"), newer))

	require.NoError(t, m.PullSync(context.Background()))

	entries, err := m.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh copy", entries[0].Blocks[0].Text)

	_, err = kv.Get(entryKey("temp-123-abcd"))
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestManager_RetryBackoffAndAbandon(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	remote.createErr = assert.AnError
	m, clock := newTestManager(kv, remote)

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)

	maxAttempts := m.cfg.Retry.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	for i := 0; i < maxAttempts+2; i++ {
		m.Sweep(context.Background())
		clock.advance(10 * time.Minute)
	}

	// 次数用尽后放弃重试，条目仍留在本地缓存
	assert.Equal(t, 0, m.Status().PendingJobs)
	assert.LessOrEqual(t, remote.createCalls, maxAttempts)
	_, err = m.store.get(e.ID)
	assert.NoError(t, err)
}

func TestManager_BackoffSkipsUntilDue(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	remote.createErr = assert.AnError
	m, clock := newTestManager(kv, remote)

	_, err := m.Create("2024-01-01")
	require.NoError(t, err)

	m.Sweep(context.Background())
	require.Equal(t, 1, remote.createCalls)

	// 未到重试时间，扫描不再发起调用
	m.Sweep(context.Background())
	assert.Equal(t, 1, remote.createCalls)

	clock.advance(time.Hour)
	m.Sweep(context.Background())
	assert.Equal(t, 2, remote.createCalls)
}

func TestManager_AuthErrorNotRetried(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	remote.createErr = domain.ErrAuthFailed
	m, clock := newTestManager(kv, remote)

	_, err := m.Create("2024-01-01")
	require.NoError(t, err)

	m.Sweep(context.Background())
	clock.advance(time.Hour)
	m.Sweep(context.Background())

	assert.Equal(t, 1, remote.createCalls)
	assert.True(t, m.Status().AuthExpired)
	assert.Equal(t, 0, m.Status().PendingJobs)
}

func TestManager_OfflineSweepDoesNothing(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)
	m.online.Store(false)

	_, err := m.Create("2024-01-01")
	require.NoError(t, err)
	m.Sweep(context.Background())

	assert.Equal(t, 0, remote.createCalls)
	assert.Equal(t, 1, m.Status().PendingJobs)
}

func TestManager_MalformedCachedEntryRepaired(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	// 块列表缺失的畸形数据：加载时就地修复而不是拒绝
	require.NoError(t, kv.Set(entryKey("9"), []byte(`{"id":"9","date":"2024-01-01"}`)))

	got, err := m.Get("9")
	require.NoError(t, err)
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, domain.BlockTypeParagraph, got.Blocks[0].Type)
	assert.Equal(t, "", got.Blocks[0].Text)
}

func TestScenario_CreateTypeEnterType(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)
	ctx := context.Background()

	// 创建 2024-01-01 的条目，输入 Hello，回车，输入 World
	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	tempID := e.ID
	require.True(t, domain.IsTempID(tempID))

	require.NoError(t, m.Update(ctx, tempID, textBlocks("Hello")))
	require.NoError(t, m.Update(ctx, tempID, textBlocks("Hello", "World")))

	// 同步完成前仍是临时标识
	cached, err := m.Get(tempID)
	require.NoError(t, err)
	assert.True(t, domain.IsTempID(cached.ID))

	// 模拟的远端创建完成后换成永久标识，临时缓存键被移除
	m.Sweep(ctx)

	confirmed, err := m.Get(tempID)
	require.NoError(t, err)
	assert.False(t, domain.IsTempID(confirmed.ID))
	require.Len(t, confirmed.Blocks, 2)
	assert.Equal(t, "Hello", confirmed.Blocks[0].Text)
	assert.Equal(t, "World", confirmed.Blocks[1].Text)
	assert.Equal(t, domain.BlockTypeParagraph, confirmed.Blocks[0].Type)
	assert.Equal(t, domain.BlockTypeParagraph, confirmed.Blocks[1].Type)

	_, err = m.store.get(tempID)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	entries, err := m.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManager_EditDuringCreateConfirmationKept(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)
	ctx := context.Background()

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	tempID := e.ID

	// 远端创建落地后、确认前又有本地编辑进来
	remote.onCreate = func(string) {
		require.NoError(t, m.Update(ctx, tempID, textBlocks("typed during confirm")))
	}
	m.Sweep(ctx)

	// 缓存里的确认副本必须是最新内容而不是发送时的快照
	got, err := m.Get(tempID)
	require.NoError(t, err)
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "typed during confirm", got.Blocks[0].Text)

	// 飞行途中的编辑换号后继续作为更新任务排队，下一轮送达远端
	assert.Equal(t, 1, m.Status().PendingJobs)
	remote.onCreate = nil
	m.Sweep(ctx)
	assert.Equal(t, 0, m.Status().PendingJobs)
	assert.Equal(t, 1, remote.updateCalls)
	remote.mu.Lock()
	re := remote.entries[got.ID]
	remote.mu.Unlock()
	require.NotNil(t, re)
	assert.Equal(t, "typed during confirm", re.Blocks[0].Text)
}

func TestManager_TempTombstoneCollectedBySweep(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, clock := newTestManager(kv, remote)
	ctx := context.Background()

	e, err := m.Create("2024-01-01")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, e.ID))

	// 宽限期内墓碑保留
	m.Sweep(ctx)
	assert.True(t, m.store.isTombstoned(e.ID))

	// 宽限期过后由扫描循环回收，离线时同样生效，始终不碰网络
	m.SetOnline(ctx, false)
	clock.advance(11 * time.Second)
	m.Sweep(ctx)
	assert.False(t, m.store.isTombstoned(e.ID))
	assert.Equal(t, 0, remote.deleteCalls)
}

func TestManager_AbandonedDeleteTombstoneCollected(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	remote.deleteErr = assert.AnError
	m, clock := newTestManager(kv, remote)
	ctx := context.Background()

	id := "42"
	require.NoError(t, m.store.putVerified(&domain.Entry{
		ID: id, Date: "2024-01-01", Blocks: textBlocks("doomed"), UpdatedAt: timexNow(clock.now()),
	}))
	require.NoError(t, m.Delete(ctx, id))

	maxAttempts := m.cfg.Retry.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	for i := 0; i < maxAttempts+2; i++ {
		m.Sweep(ctx)
		clock.advance(10 * time.Minute)
	}

	// 删除任务放弃后墓碑不会永远留存
	assert.Equal(t, 0, m.Status().PendingJobs)
	assert.False(t, m.store.isTombstoned(id))
}

func TestManager_PullRequestsExplicitListLimit(t *testing.T) {
	kv := cache.NewMemory()
	remote := newFakeRemote()
	m, _ := newTestManager(kv, remote)

	require.NoError(t, m.PullSync(context.Background()))

	// 拉取永远显式给出上限，不依赖服务端的默认条数收敛
	assert.Equal(t, m.cfg.PullListLimit, remote.lastListLimit)
	assert.Greater(t, remote.lastListLimit, 0)
}
