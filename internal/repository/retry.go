package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/metrics"
)

// ErrRetriesExhausted 重试次数用尽后返回，包装最后一次错误
var ErrRetriesExhausted = errors.New("持久化重试次数已用尽")

// RetryPolicy 指数退避参数
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	JitterFrac  float64
}

// Retrier 对写操作做有限次重试
type Retrier struct {
	policy RetryPolicy
	log    *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrier(policy RetryPolicy, log *logger.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy, log: log, sleep: sleepContext}
}

// Do 执行 fn，失败时退避后重试；ctx 取消时立即返回
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := computeBackoff(r.policy, attempt)
		metrics.SinkRetries.WithLabelValues(op).Inc()
		r.log.Warn("[Sink] 写入失败，稍后重试", "op", op, "attempt", attempt, "delay", delay, "error", err)
		if serr := r.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("%s: %w", op, serr)
		}
	}

	metrics.SinkFailures.WithLabelValues(op).Inc()
	r.log.Error("[Sink] 写入失败，放弃重试", "op", op, "attempts", r.policy.MaxAttempts, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrRetriesExhausted, err)
}

func computeBackoff(p RetryPolicy, attempts int) time.Duration {
	minB := p.MinBackoff
	maxB := p.MaxBackoff
	j := p.JitterFrac
	if minB <= 0 {
		minB = 500 * time.Millisecond
	}
	if maxB <= 0 {
		maxB = 15 * time.Second
	}
	if j <= 0 {
		j = 0.20
	}
	if attempts < 1 {
		attempts = 1
	}
	d := time.Duration(float64(minB) * math.Pow(2, float64(attempts-1)))
	if d > maxB {
		d = maxB
	}
	delta := float64(d) * j
	low := float64(d) - delta
	high := float64(d) + delta
	if low < 0 {
		low = 0
	}
	return time.Duration(low + rand.Float64()*(high-low))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
