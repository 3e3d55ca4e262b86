// Package retry 提供统一的指数退避重试策略
// 同步任务的 create/update/delete 作业统一消费同一个策略对象，
// 避免退避参数散落在各处
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted 当重试次数用尽时返回
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy 重试策略
type Policy struct {
	// MaxAttempts 最大尝试次数（含首次），默认 5
	MaxAttempts int
	// BaseDelay 首次重试前的等待时间，默认 2 秒
	BaseDelay time.Duration
	// Multiplier 退避倍数，默认 2.0
	Multiplier float64
	// MaxDelay 单次等待的上限，默认 5 分钟
	MaxDelay time.Duration
}

// DefaultPolicy 返回默认策略
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2.0,
		MaxDelay:    5 * time.Minute,
	}
}

// normalize 应用默认值
func (p Policy) normalize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Minute
	}
	return p
}

// Delay 返回第 attempt 次失败后的等待时间
// attempt 从 0 开始计数
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalize()
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Exhausted 判断重试次数是否用尽
func (p Policy) Exhausted(attempt int) bool {
	p = p.normalize()
	return attempt >= p.MaxAttempts
}

// Do 按策略执行 fn，直到成功、ctx 取消或次数用尽
// permanent 返回 true 的错误不再重试，直接返回
func (p Policy) Do(ctx context.Context, fn func() error, permanent func(error) bool) error {
	p = p.normalize()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Join(ErrAttemptsExhausted, lastErr)
}
