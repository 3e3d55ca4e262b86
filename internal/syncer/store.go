package syncer

import (
	"strings"
	"sync"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/cache"
	"github.com/haierkeys/block-journal-sync-service/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	entryKeyPrefix = "entries/"
	tombstonesKey  = "meta/tombstones"
)

// ErrIntegrityCheckFailed 本地写入读回校验在全部重试后仍不一致
// 这是唯一不允许静默吞掉的错误：意味着用户击键可能没有被持久记录
var ErrIntegrityCheckFailed = errors.New("syncer: local cache integrity check failed")

// entryStore 条目的本地持久化层
// 写入带读回校验，墓碑集合同样落在缓存里
type entryStore struct {
	kv              cache.KV
	readBackRetries int
	logger          *zap.Logger

	mu         sync.Mutex
	tombstones map[string]struct{}
}

func newEntryStore(kv cache.KV, readBackRetries int, logger *zap.Logger) *entryStore {
	return &entryStore{
		kv:              kv,
		readBackRetries: readBackRetries,
		logger:          logger,
		tombstones:      make(map[string]struct{}),
	}
}

func entryKey(id string) string {
	return entryKeyPrefix + id
}

// get 读取并归一化条目
func (s *entryStore) get(id string) (*domain.Entry, error) {
	var e domain.Entry
	if err := cache.GetJSON(s.kv, entryKey(id), &e); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	// 畸形数据就地修复而不是拒绝
	e.Normalize()
	return &e, nil
}

// contentHash 条目全部块文本的内容指纹
func contentHash(e *domain.Entry) string {
	var sb strings.Builder
	for i := range e.Blocks {
		sb.WriteString(e.Blocks[i].Text)
		sb.WriteByte('\n')
	}
	return util.EncodeHash32(sb.String())
}

// putVerified 写入条目并立即读回比对字符数、块数与内容指纹
// 校验失败时重试写入，全部失败返回 ErrIntegrityCheckFailed
func (s *entryStore) putVerified(e *domain.Entry) error {
	wantChars := e.CharCount()
	wantBlocks := e.BlockCount()
	wantHash := contentHash(e)

	var lastErr error
	for attempt := 0; attempt < s.readBackRetries; attempt++ {
		if err := cache.SetJSON(s.kv, entryKey(e.ID), e); err != nil {
			lastErr = err
			continue
		}
		var back domain.Entry
		if err := cache.GetJSON(s.kv, entryKey(e.ID), &back); err != nil {
			lastErr = err
			continue
		}
		if back.CharCount() == wantChars && back.BlockCount() == wantBlocks && contentHash(&back) == wantHash {
			return nil
		}
		lastErr = errors.Errorf("read-back mismatch: chars %d/%d blocks %d/%d",
			back.CharCount(), wantChars, back.BlockCount(), wantBlocks)
		s.logger.Warn("cache write verification failed, retrying",
			zap.String("entryId", e.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return errors.Wrapf(ErrIntegrityCheckFailed, "entry %s: %v", e.ID, lastErr)
}

// remove 删除条目
func (s *entryStore) remove(id string) error {
	return s.kv.Remove(entryKey(id))
}

// listLocal 枚举全部本地条目
func (s *entryStore) listLocal() ([]*domain.Entry, error) {
	keys, err := s.kv.Keys()
	if err != nil {
		return nil, err
	}
	var out []*domain.Entry
	for _, k := range keys {
		if !strings.HasPrefix(k, entryKeyPrefix) {
			continue
		}
		id := strings.TrimPrefix(k, entryKeyPrefix)
		e, err := s.get(id)
		if err != nil {
			s.logger.Warn("skip unreadable cached entry", zap.String("key", k), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// loadTombstones 从缓存恢复墓碑集合
func (s *entryStore) loadTombstones() error {
	var ids []string
	if err := cache.GetJSON(s.kv, tombstonesKey, &ids); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.tombstones[id] = struct{}{}
	}
	return nil
}

// persistTombstones 把墓碑集合写回缓存，调用方必须持有 s.mu
func (s *entryStore) persistTombstonesLocked() {
	ids := make([]string, 0, len(s.tombstones))
	for id := range s.tombstones {
		ids = append(ids, id)
	}
	if err := cache.SetJSON(s.kv, tombstonesKey, ids); err != nil {
		s.logger.Warn("persist tombstones failed", zap.Error(err))
	}
}

// addTombstone 记录删除墓碑
func (s *entryStore) addTombstone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[id] = struct{}{}
	s.persistTombstonesLocked()
}

// clearTombstone 清除删除墓碑
func (s *entryStore) clearTombstone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tombstones, id)
	s.persistTombstonesLocked()
}

// isTombstoned 条目是否已被本地删除
func (s *entryStore) isTombstoned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tombstones[id]
	return ok
}

// dedup 清理共享同一条目标识的重复缓存键
// 临时标识创建与确认换号之间的竞态会留下重复，保留更新时间最晚的一份
func (s *entryStore) dedup() error {
	keys, err := s.kv.Keys()
	if err != nil {
		return err
	}

	type cached struct {
		key string
		e   *domain.Entry
	}
	byID := make(map[string][]cached)
	for _, k := range keys {
		if !strings.HasPrefix(k, entryKeyPrefix) {
			continue
		}
		e, err := s.get(strings.TrimPrefix(k, entryKeyPrefix))
		if err != nil {
			continue
		}
		byID[e.ID] = append(byID[e.ID], cached{key: k, e: e})
	}

	for id, copies := range byID {
		if len(copies) <= 1 {
			continue
		}
		best := copies[0]
		for _, c := range copies[1:] {
			if c.e.UpdatedAt.Time().After(best.e.UpdatedAt.Time()) {
				best = c
			}
		}
		s.logger.Info("deduplicating cached entry copies",
			zap.String("entryId", id),
			zap.Int("copies", len(copies)))
		for _, c := range copies {
			if c.key != best.key {
				if err := s.kv.Remove(c.key); err != nil {
					s.logger.Warn("remove duplicate cache key failed",
						zap.String("key", c.key), zap.Error(err))
				}
			}
		}
		// 重写幸存副本，保证键与条目标识一致
		if err := cache.SetJSON(s.kv, entryKey(id), best.e); err != nil {
			s.logger.Warn("rewrite deduplicated entry failed",
				zap.String("entryId", id), zap.Error(err))
			continue
		}
		if best.key != entryKey(id) {
			if err := s.kv.Remove(best.key); err != nil {
				s.logger.Warn("remove stale duplicate key failed",
					zap.String("key", best.key), zap.Error(err))
			}
		}
	}
	return nil
}
