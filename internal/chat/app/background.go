package app

import (
	"context"
	"sync"
	"time"

	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// BackgroundRunner runs best effort tasks detached from the caller.
// Failures and panics are logged, never returned.
type BackgroundRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewBackgroundRunner create BackgroundRunner, each task gets its own timeout
func NewBackgroundRunner(timeout time.Duration) *BackgroundRunner {
	return &BackgroundRunner{timeout: timeout}
}

// Go start task name
func (b *BackgroundRunner) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("background task panic", zap.String("task", name), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Log.Warn("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait block until every started task returned (shutdown, tests)
func (b *BackgroundRunner) Wait() {
	b.wg.Wait()
}
