// Package syncer 实现离线优先的双写同步管理器
// 每次编辑先同步落到本地缓存，再排队后台写远端；
// 活跃编辑窗口保护本地内容不被后台拉取覆盖
package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/cache"
	"github.com/haierkeys/block-journal-sync-service/pkg/retry"
	"github.com/haierkeys/block-journal-sync-service/pkg/safeclose"
	"github.com/haierkeys/block-journal-sync-service/pkg/timex"
	"github.com/haierkeys/block-journal-sync-service/pkg/workerpool"
	"github.com/haierkeys/block-journal-sync-service/pkg/writequeue"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config 同步管理器配置
type Config struct {
	// SweepInterval 后台扫描间隔，默认 5 秒
	SweepInterval time.Duration `yaml:"sweep-interval"`
	// PullInterval 拉取合并间隔，默认 30 秒
	PullInterval time.Duration `yaml:"pull-interval"`
	// ProtectionWindow 活跃编辑保护窗口，默认 6 秒
	ProtectionWindow time.Duration `yaml:"protection-window"`
	// SmallEditBlockThreshold 小编辑块数阈值，低于此值触发近即时同步，默认 3
	SmallEditBlockThreshold int `yaml:"small-edit-block-threshold"`
	// ReadBackRetries 本地写入读回校验重试次数，默认 3
	ReadBackRetries int `yaml:"read-back-retries"`
	// TempTombstoneGrace 临时标识墓碑的清理宽限期，默认 10 秒
	TempTombstoneGrace time.Duration `yaml:"temp-tombstone-grace"`
	// PullListLimit 拉取合并时向远端请求的条目数上限，默认 10000
	// 必须显式给出，否则服务端会收敛到自己的默认条数，拉取覆盖不全
	PullListLimit int `yaml:"pull-list-limit"`
	// Retry 远端写入退避策略
	Retry retry.Policy `yaml:"retry"`
}

// applyDefaults 填充零值配置
func (c *Config) applyDefaults() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Second
	}
	if c.PullInterval <= 0 {
		c.PullInterval = 30 * time.Second
	}
	if c.ProtectionWindow <= 0 {
		c.ProtectionWindow = 6 * time.Second
	}
	if c.SmallEditBlockThreshold <= 0 {
		c.SmallEditBlockThreshold = 3
	}
	if c.ReadBackRetries <= 0 {
		c.ReadBackRetries = 3
	}
	if c.TempTombstoneGrace <= 0 {
		c.TempTombstoneGrace = 10 * time.Second
	}
	if c.PullListLimit <= 0 {
		c.PullListLimit = 10000
	}
}

// Status 同步状态快照，供宿主展示"离线/待同步"指示
type Status struct {
	Online      bool      `json:"online"`
	PendingJobs int       `json:"pendingJobs"`
	LastPullAt  time.Time `json:"lastPullAt"`
	AuthExpired bool      `json:"authExpired"`
}

// Manager 同步管理器
// 单实例持有本地缓存、写队列、活跃编辑保护表和删除墓碑集合；
// 通过显式依赖注入构造，生命周期由 Start/Stop 控制
type Manager struct {
	cfg    Config
	logger *zap.Logger

	store  *entryStore
	remote domain.RemoteStore

	// wq 串行化同一条目的远端写，保证同条目不乱序
	wq *writequeue.Manager
	// pool 承载小编辑的近即时同步尝试
	pool *workerpool.Pool

	mu sync.Mutex
	// jobs 待同步任务，同条目后到的快照覆盖先到的
	jobs map[string]*job
	// protection 条目标识到最近一次本地编辑时间
	protection map[string]time.Time
	// aliases 临时标识到远端标识的映射
	aliases map[string]string
	// tombstoneGC 墓碑标识到宽限期截止时间，由扫描循环回收
	tombstoneGC map[string]time.Time

	online      atomic.Bool
	authExpired atomic.Bool
	lastPullAt  atomic.Int64

	pullGroup singleflight.Group

	sc      *safeclose.SafeClose
	started atomic.Bool

	// now 可注入时钟，便于测试保护窗口
	now func() time.Time
}

// New 创建同步管理器
func New(cfg Config, store cache.KV, remote domain.RemoteStore, logger *zap.Logger) *Manager {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cfg:         cfg,
		logger:      logger,
		store:       newEntryStore(store, cfg.ReadBackRetries, logger),
		remote:      remote,
		wq:          writequeue.New(nil, logger),
		pool:        workerpool.New(nil, logger),
		jobs:        make(map[string]*job),
		protection:  make(map[string]time.Time),
		aliases:     make(map[string]string),
		tombstoneGC: make(map[string]time.Time),
		sc:          safeclose.New(),
		now:         time.Now,
	}
	m.online.Store(true)
	return m
}

// Start 启动后台扫描与拉取循环
func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return nil
	}
	if err := m.store.loadTombstones(); err != nil {
		m.logger.Warn("load tombstones failed", zap.Error(err))
	}

	m.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-closeSignal:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(ctx)
			}
		}
	})

	m.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		ticker := time.NewTicker(m.cfg.PullInterval)
		defer ticker.Stop()
		for {
			select {
			case <-closeSignal:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.PullSync(ctx); err != nil {
					m.logger.Warn("pull sync failed", zap.Error(err))
				}
			}
		}
	})

	m.logger.Info("sync manager started",
		zap.Duration("sweepInterval", m.cfg.SweepInterval),
		zap.Duration("pullInterval", m.cfg.PullInterval),
		zap.Duration("protectionWindow", m.cfg.ProtectionWindow))
	return nil
}

// Stop 停止后台循环并做一次尽力的最终刷写
func (m *Manager) Stop(ctx context.Context) error {
	if !m.started.CompareAndSwap(true, false) {
		return nil
	}
	m.Flush(ctx)
	m.sc.SendCloseSignal(nil)
	m.sc.WaitClosed()
	if err := m.wq.Shutdown(ctx); err != nil {
		m.logger.Warn("write queue shutdown", zap.Error(err))
	}
	if err := m.pool.Shutdown(ctx); err != nil {
		m.logger.Warn("worker pool shutdown", zap.Error(err))
	}
	m.logger.Info("sync manager stopped")
	return nil
}

// SetOnline 更新在线状态，重新上线时触发一次拉取
func (m *Manager) SetOnline(ctx context.Context, online bool) {
	was := m.online.Swap(online)
	if !was && online {
		go func() {
			if err := m.PullSync(ctx); err != nil {
				m.logger.Warn("reconnect pull sync failed", zap.Error(err))
			}
		}()
	}
}

// Status 返回同步状态快照
func (m *Manager) Status() Status {
	m.mu.Lock()
	pending := len(m.jobs)
	m.mu.Unlock()
	return Status{
		Online:      m.online.Load(),
		PendingJobs: pending,
		LastPullAt:  time.UnixMilli(m.lastPullAt.Load()),
		AuthExpired: m.authExpired.Load(),
	}
}

// resolveID 临时标识已完成交换时重定向到远端标识
func (m *Manager) resolveID(id string) string {
	if perm, ok := m.aliases[id]; ok {
		return perm
	}
	return id
}

// markActive 刷新条目的活跃编辑保护窗口
func (m *Manager) markActive(id string) {
	m.protection[id] = m.now()
}

// isProtected 条目是否处于保护窗口内
func (m *Manager) isProtected(id string) bool {
	at, ok := m.protection[id]
	if !ok {
		return false
	}
	return m.now().Sub(at) < m.cfg.ProtectionWindow
}

// timexNow 把注入时钟的时间转成缓存时间类型
func timexNow(t time.Time) timex.Time {
	return timex.Time(t)
}
