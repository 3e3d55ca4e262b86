package task

import (
	"context"
	"time"

	"github.com/haierkeys/block-journal-sync-service/pkg/safeclose"
	"github.com/haierkeys/block-journal-sync-service/pkg/workerpool"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	LoopInterval() time.Duration   // 执行间隔，<=0 时不按间隔循环
	IsStartupRun() bool            // 是否立即执行一次
}

// CronTask 按 cron 表达式调度的任务
// 实现该接口的任务使用 CronSpec 调度，LoopInterval 被忽略
type CronTask interface {
	Task
	CronSpec() string
}

// Scheduler 任务调度器
// 任务体通过共享 Worker Pool 执行，后台任务并发有界
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	cron   *cron.Cron
	pool   *workerpool.Pool
	sc     *safeclose.SafeClose
}

// NewScheduler 创建任务调度器，pool 为 nil 时任务在独立 goroutine 中执行
func NewScheduler(logger *zap.Logger, sc *safeclose.SafeClose, pool *workerpool.Pool) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		cron:   cron.New(),
		pool:   pool,
		sc:     sc,
	}
}

// runAsync 在共享 Worker Pool 上执行任务体
func (s *Scheduler) runAsync(name string, fn func()) {
	if s.pool == nil {
		go fn()
		return
	}
	err := s.pool.SubmitAsync(context.Background(), func(ctx context.Context) error {
		fn()
		return nil
	})
	if err != nil {
		s.logger.Warn("task submit to worker pool failed, running inline",
			zap.String("name", name), zap.Error(err))
		go fn()
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	cronCount := 0
	for _, task := range s.tasks {
		if ct, ok := task.(CronTask); ok {
			if err := s.addCronTask(ct); err != nil {
				s.logger.Error("task cron spec invalid",
					zap.String("name", ct.Name()),
					zap.String("spec", ct.CronSpec()),
					zap.Error(err))
				continue
			}
			cronCount++
			continue
		}
		s.startTask(task)
	}

	if cronCount > 0 {
		s.cron.Start()
		s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			<-closeSignal
			<-s.cron.Stop().Done()
			s.logger.Info("cron tasks stopped", zap.Int("count", cronCount))
		})
	}
}

// addCronTask 以 cron 表达式注册任务
func (s *Scheduler) addCronTask(task CronTask) error {

	run := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("task cronRun panic",
					zap.String("name", task.Name()),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}()
		s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("cronRun", true))
		if err := task.Run(context.Background()); err != nil {
			s.logger.Error("task running error",
				zap.String("name", task.Name()),
				zap.Bool("cronRun", true),
				zap.Error(err))
		}
	}

	if _, err := s.cron.AddFunc(task.CronSpec(), run); err != nil {
		return err
	}

	if task.IsStartupRun() {
		s.runAsync(task.Name(), run)
	}

	return nil
}

// startTask 启动单个间隔任务
func (s *Scheduler) startTask(task Task) {

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		// 如果任务需要立即执行
		if task.IsStartupRun() {
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("startupRun", true))
			s.runAsync(task.Name(), func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("task startupRun panic",
							zap.String("name", task.Name()),
							zap.Any("panic", r),
							zap.Stack("stack"))
					}
				}()
				if err := task.Run(context.Background()); err != nil {
					s.logger.Error("task running error",
						zap.String("name", task.Name()),
						zap.Bool("startupRun", true),
						zap.Error(err))
				}
			})
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		// 定时执行
		for {
			select {
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							s.logger.Error("task loopRun panic",
								zap.String("name", task.Name()),
								zap.Any("panic", r),
								zap.Stack("stack"))
						}
					}()
					s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("loopRun", true))
					if err := task.Run(context.Background()); err != nil {
						s.logger.Error("task running error",
							zap.String("name", task.Name()),
							zap.Bool("loopRun", true),
							zap.Error(err))
					}
				}()
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String("name", task.Name()), zap.Bool("loopRun", true))
				return
			}
		}
	})
}
