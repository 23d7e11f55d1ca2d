package utils

import (
	"context"
	"time"
)

// SleepFunc 可替换的等待函数，测试里用来计数、跳过真实等待
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext 等待 d，ctx 先结束时提前返回 ctx.Err()
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
