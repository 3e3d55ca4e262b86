package syncer

import (
	"context"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/diff"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PullSync 拉取远端条目列表并合并进本地缓存
// 定时触发和重连触发共用一个 singleflight 键，并发调用合并为一次
func (m *Manager) PullSync(ctx context.Context) error {
	_, err, _ := m.pullGroup.Do("pull", func() (interface{}, error) {
		return nil, m.pullSync(ctx)
	})
	return err
}

func (m *Manager) pullSync(ctx context.Context) error {
	if !m.online.Load() {
		return nil
	}

	// 显式给出条数上限，交给服务端默认值会让拉取只覆盖最新的一段
	remotes, err := m.remote.ListEntries(ctx, m.cfg.PullListLimit)
	if err != nil {
		if domain.IsAuthError(err) {
			m.authExpired.Store(true)
		}
		return err
	}

	merged, skippedProtected, skippedTombstoned := 0, 0, 0
	for _, re := range remotes {
		switch m.mergeRemote(re) {
		case mergeApplied:
			merged++
		case mergeSkippedProtected:
			skippedProtected++
		case mergeSkippedTombstone:
			skippedTombstoned++
		}
	}

	// 换号竞态留下的重复副本在每轮拉取后清理
	if err := m.store.dedup(); err != nil {
		m.logger.Warn("cache dedup failed", zap.Error(err))
	}

	m.lastPullAt.Store(m.now().UnixMilli())
	m.logger.Debug("pull sync completed",
		zap.Int("remote", len(remotes)),
		zap.Int("merged", merged),
		zap.Int("skippedProtected", skippedProtected),
		zap.Int("skippedTombstoned", skippedTombstoned))
	return nil
}

type mergeResult int

const (
	mergeApplied mergeResult = iota
	mergeSkippedProtected
	mergeSkippedTombstone
	mergeSkippedOlder
)

// mergeRemote 把单个远端条目合并进本地缓存
// 规则：墓碑优先，保护窗口其次，其余按 updatedAt 新者胜
func (m *Manager) mergeRemote(re *domain.RemoteEntry) mergeResult {
	if m.store.isTombstoned(re.ID) {
		return mergeSkippedTombstone
	}

	m.mu.Lock()
	protected := m.isProtected(re.ID)
	m.mu.Unlock()

	local, err := m.store.get(re.ID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		local = nil
	} else if err != nil {
		m.logger.Warn("read local entry during merge failed",
			zap.String("entryId", re.ID), zap.Error(err))
		return mergeSkippedOlder
	}

	if protected && local != nil {
		// 活跃编辑永不被后台拉取覆盖，差异只记日志
		if s := diff.Compare(localText(local), remoteText(re)); s.Changed() {
			m.logger.Info("remote change withheld by active-edit protection",
				zap.String("entryId", re.ID),
				zap.Int("insertedChars", s.InsertedChars),
				zap.Int("deletedChars", s.DeletedChars))
		}
		return mergeSkippedProtected
	}

	if local != nil && !re.UpdatedAt.Time().After(local.UpdatedAt.Time()) {
		return mergeSkippedOlder
	}

	if err := m.store.putVerified(re.Entry()); err != nil {
		m.logger.Warn("merge remote entry failed",
			zap.String("entryId", re.ID), zap.Error(err))
		return mergeSkippedOlder
	}
	return mergeApplied
}

func localText(e *domain.Entry) string {
	out := ""
	for i := range e.Blocks {
		if i > 0 {
			out += "\n"
		}
		out += e.Blocks[i].Text
	}
	return out
}

func remoteText(re *domain.RemoteEntry) string {
	out := ""
	for i := range re.Blocks {
		if i > 0 {
			out += "\n"
		}
		out += re.Blocks[i].Text
	}
	return out
}
