package syncer

import (
	"context"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// jobKind 同步任务类型
type jobKind int

const (
	jobCreate jobKind = iota
	jobUpdate
	jobDelete
)

func (k jobKind) String() string {
	switch k {
	case jobCreate:
		return "create"
	case jobUpdate:
		return "update"
	case jobDelete:
		return "delete"
	}
	return "unknown"
}

// job 一条待同步任务
// 同条目后到的快照直接覆盖先到的（合并写），网络调用前以最新快照为准
type job struct {
	kind        jobKind
	entryID     string
	snapshot    *domain.Entry
	enqueuedAt  time.Time
	retryCount  int
	nextAttempt time.Time
}

// Create 立即创建条目：临时标识、同步写缓存、排队远端创建
// 调用方在同一拍内拿到条目对象，不等待网络
func (m *Manager) Create(date string) (*domain.Entry, error) {
	e := domain.NewEntry(date)
	if err := m.store.putVerified(e); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.markActive(e.ID)
	m.jobs[e.ID] = &job{
		kind:       jobCreate,
		entryID:    e.ID,
		snapshot:   e.Clone(),
		enqueuedAt: m.now(),
	}
	m.mu.Unlock()

	m.logger.Debug("entry created locally",
		zap.String("entryId", e.ID),
		zap.String("date", date))
	return e.Clone(), nil
}

// Update 自动保存路径：刷新保护窗口、带校验落缓存、排队后台更新
// 小编辑（块数低于阈值）额外触发一次近即时同步尝试
func (m *Manager) Update(ctx context.Context, id string, blocks []domain.Block) error {
	m.mu.Lock()
	id = m.resolveID(id)
	m.markActive(id)
	m.mu.Unlock()

	e, err := m.store.get(id)
	if err != nil {
		if !errors.Is(err, domain.ErrEntryNotFound) {
			return err
		}
		e = &domain.Entry{ID: id, Date: m.now().Format("2006-01-02")}
	}
	e.Blocks = blocks
	e.UpdatedAt = timexNow(m.now())
	e.Normalize()

	if err := m.store.putVerified(e); err != nil {
		return err
	}

	m.mu.Lock()
	if existing, ok := m.jobs[id]; ok && existing.kind == jobCreate {
		// 创建尚未确认，后续内容跟着创建任务一起走
		existing.snapshot = e.Clone()
	} else {
		m.jobs[id] = &job{
			kind:       jobUpdate,
			entryID:    id,
			snapshot:   e.Clone(),
			enqueuedAt: m.now(),
		}
	}
	smallEdit := len(blocks) < m.cfg.SmallEditBlockThreshold
	m.mu.Unlock()

	if smallEdit && m.online.Load() {
		if err := m.pool.SubmitAsync(ctx, func(ctx context.Context) error {
			m.flushEntry(ctx, id)
			return nil
		}); err != nil {
			m.logger.Debug("immediate sync attempt not scheduled", zap.Error(err))
		}
	}
	return nil
}

// Delete 删除条目
// 先落墓碑（让并发的扫描和拉取看得见），再清缓存和队列；
// 非临时标识才会发起远端删除，临时标识从未存在于远端
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	id = m.resolveID(id)
	delete(m.jobs, id)
	delete(m.protection, id)
	m.mu.Unlock()

	m.store.addTombstone(id)
	if err := m.store.remove(id); err != nil {
		m.logger.Warn("remove entry from cache failed",
			zap.String("entryId", id), zap.Error(err))
	}

	if domain.IsTempID(id) {
		// 宽限期后由扫描循环清掉墓碑即可，无需网络调用
		m.mu.Lock()
		m.tombstoneGC[id] = m.now().Add(m.cfg.TempTombstoneGrace)
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.jobs[id] = &job{
		kind:       jobDelete,
		entryID:    id,
		enqueuedAt: m.now(),
	}
	m.mu.Unlock()
	return nil
}

// Get 读取本地缓存中的条目
func (m *Manager) Get(id string) (*domain.Entry, error) {
	m.mu.Lock()
	id = m.resolveID(id)
	m.mu.Unlock()
	return m.store.get(id)
}

// List 枚举本地缓存条目
func (m *Manager) List() ([]*domain.Entry, error) {
	return m.store.listLocal()
}

// Sweep 扫描待同步任务，对到期的任务尝试一次远端写
// 宽限期已过的墓碑在每轮扫描时回收，离线时也照常回收
func (m *Manager) Sweep(ctx context.Context) {
	m.collectTombstones()

	if !m.online.Load() {
		return
	}

	m.mu.Lock()
	due := make([]string, 0, len(m.jobs))
	now := m.now()
	for id, j := range m.jobs {
		if now.Before(j.nextAttempt) {
			continue
		}
		due = append(due, id)
	}
	m.mu.Unlock()

	for _, id := range due {
		m.flushEntry(ctx, id)
	}
}

// collectTombstones 清除宽限期已过的墓碑，到期判定用注入时钟
func (m *Manager) collectTombstones() {
	m.mu.Lock()
	now := m.now()
	var expired []string
	for id, at := range m.tombstoneGC {
		if !now.Before(at) {
			expired = append(expired, id)
			delete(m.tombstoneGC, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.store.clearTombstone(id)
	}
	if len(expired) > 0 {
		m.logger.Debug("tombstones collected", zap.Int("count", len(expired)))
	}
}

// Flush 尽力而为地刷写全部待同步任务，忽略退避调度
// 用于停机路径，不阻塞在不可达的远端上
func (m *Manager) Flush(ctx context.Context) {
	if !m.online.Load() {
		return
	}
	m.mu.Lock()
	ids := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.flushEntry(ctx, id)
	}
}

// flushEntry 对单个条目执行一次远端写，经写队列串行化
func (m *Manager) flushEntry(ctx context.Context, id string) {
	err := m.wq.Execute(ctx, id, func() error {
		return m.runJob(ctx, id)
	})
	if err != nil {
		m.logger.Debug("flush entry skipped", zap.String("entryId", id), zap.Error(err))
	}
}

// runJob 执行条目的当前任务，处理成功换号、失败退避和放弃
func (m *Manager) runJob(ctx context.Context, id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	kind := j.kind
	snapshot := j.snapshot
	m.mu.Unlock()

	// 墓碑是待定创建/更新任务的隐式取消
	if kind != jobDelete && m.store.isTombstoned(id) {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
		m.logger.Debug("job aborted by tombstone",
			zap.String("entryId", id), zap.String("kind", kind.String()))
		return nil
	}

	var err error
	switch kind {
	case jobCreate:
		err = m.runCreate(ctx, id, snapshot)
	case jobUpdate:
		err = m.runUpdate(ctx, id, snapshot)
	case jobDelete:
		err = m.runDelete(ctx, id)
	}
	if err == nil {
		return nil
	}

	if domain.IsAuthError(err) {
		// 认证错误不重试，交给宿主重新登录
		m.authExpired.Store(true)
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
		m.logger.Warn("job abandoned on auth failure",
			zap.String("entryId", id), zap.String("kind", kind.String()))
		return err
	}

	m.mu.Lock()
	if j, ok := m.jobs[id]; ok {
		j.retryCount++
		if m.cfg.Retry.Exhausted(j.retryCount) {
			// 放弃重试：条目保留在本地缓存里，避免无限重试风暴
			delete(m.jobs, id)
			if kind == jobDelete {
				// 被放弃的删除任务留下的墓碑同样走宽限期回收
				m.tombstoneGC[id] = m.now().Add(m.cfg.TempTombstoneGrace)
			}
			m.logger.Warn("job abandoned after max attempts",
				zap.String("entryId", id),
				zap.String("kind", kind.String()),
				zap.Int("attempts", j.retryCount))
		} else {
			j.nextAttempt = m.now().Add(m.cfg.Retry.Delay(j.retryCount))
			m.logger.Debug("job rescheduled",
				zap.String("entryId", id),
				zap.Int("retry", j.retryCount),
				zap.Time("nextAttempt", j.nextAttempt))
		}
	}
	m.mu.Unlock()
	return err
}

// runCreate 远端创建并完成临时标识到远端标识的交换
func (m *Manager) runCreate(ctx context.Context, tempID string, snapshot *domain.Entry) error {
	re, err := m.remote.CreateEntry(ctx, snapshot)
	if err != nil {
		return err
	}

	// 调用期间条目可能已被本地删除，补偿性远端删除
	if m.store.isTombstoned(tempID) {
		if derr := m.remote.DeleteEntry(ctx, re.ID); derr != nil {
			m.logger.Warn("compensating remote delete failed",
				zap.String("remoteId", re.ID), zap.Error(derr))
		}
		m.mu.Lock()
		delete(m.jobs, tempID)
		m.mu.Unlock()
		return nil
	}

	// 远端调用期间可能有新编辑并入创建任务，确认副本必须以最新快照落盘
	m.mu.Lock()
	latest := snapshot
	if j, ok := m.jobs[tempID]; ok && j.snapshot != nil {
		latest = j.snapshot
	}
	pendingEdit := latest != snapshot
	m.mu.Unlock()

	confirmed := latest.Clone()
	confirmed.ID = re.ID
	confirmed.CreatedAt = re.CreatedAt
	if !pendingEdit {
		confirmed.UpdatedAt = re.UpdatedAt
	}
	if err := m.store.putVerified(confirmed); err != nil {
		return err
	}
	// 临时键在确认副本落盘之后才移除
	if err := m.store.remove(tempID); err != nil {
		m.logger.Warn("remove temp cache entry failed",
			zap.String("tempId", tempID), zap.Error(err))
	}

	m.mu.Lock()
	m.aliases[tempID] = re.ID
	// 未送达远端的编辑换号后继续作为更新任务排队
	if j, ok := m.jobs[tempID]; ok && j.snapshot != nil && j.snapshot != snapshot {
		up := j.snapshot.Clone()
		up.ID = re.ID
		m.jobs[re.ID] = &job{
			kind:       jobUpdate,
			entryID:    re.ID,
			snapshot:   up,
			enqueuedAt: m.now(),
		}
	}
	delete(m.jobs, tempID)
	if at, ok := m.protection[tempID]; ok {
		m.protection[re.ID] = at
		delete(m.protection, tempID)
	}
	m.mu.Unlock()

	m.logger.Info("entry create confirmed",
		zap.String("tempId", tempID),
		zap.String("remoteId", re.ID))
	return nil
}

// runUpdate 远端更新
func (m *Manager) runUpdate(ctx context.Context, id string, snapshot *domain.Entry) error {
	_, err := m.remote.UpdateEntry(ctx, id, snapshot.Blocks)
	if err != nil {
		return err
	}
	m.mu.Lock()
	// 执行期间可能入队了更新的快照，只清掉已发送的那份
	if j, ok := m.jobs[id]; ok && j.snapshot == snapshot {
		delete(m.jobs, id)
	}
	m.mu.Unlock()
	return nil
}

// runDelete 远端删除，成功后才清墓碑
func (m *Manager) runDelete(ctx context.Context, id string) error {
	if err := m.remote.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			// 远端本就不存在，视作删除成功
			m.store.clearTombstone(id)
			m.mu.Lock()
			delete(m.jobs, id)
			m.mu.Unlock()
			return nil
		}
		return err
	}
	m.store.clearTombstone(id)
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
	return nil
}
