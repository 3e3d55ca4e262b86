package task

import (
	"context"
	"time"

	"github.com/haierkeys/block-journal-sync-service/internal/app"

	"go.uber.org/zap"
)

func init() {
	Register(NewEntryPurgeTask)
}

// EntryPurgeTask 软删除条目物理清理任务
// 超出保留期的软删除条目会被物理删除
type EntryPurgeTask struct {
	app *app.App
}

// NewEntryPurgeTask 创建条目清理任务
// 未配置保留期时返回 nil，任务禁用
func NewEntryPurgeTask(a *app.App) (Task, error) {
	retention := a.Config().App.SoftDeleteRetentionTime
	if retention == "" || retention == "0" {
		a.Logger().Info("entry purge task is disabled (retention time not configured)")
		return nil, nil
	}
	return &EntryPurgeTask{app: a}, nil
}

// Name 任务名称
func (t *EntryPurgeTask) Name() string {
	return "EntryPurge"
}

// CronSpec 每天凌晨 4 点执行
func (t *EntryPurgeTask) CronSpec() string {
	return "0 4 * * *"
}

// LoopInterval cron 任务不使用间隔调度
func (t *EntryPurgeTask) LoopInterval() time.Duration {
	return 0
}

// IsStartupRun 启动时执行一次，清掉积压的过期条目
func (t *EntryPurgeTask) IsStartupRun() bool {
	return true
}

// Run 执行清理
func (t *EntryPurgeTask) Run(ctx context.Context) error {
	purged, err := t.app.EntryService.PurgeDeleted(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		t.app.Logger().Info("entry purge finished", zap.Int64("purged", purged))
	}
	return nil
}
