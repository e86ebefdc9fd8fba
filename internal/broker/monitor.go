package broker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/pkg/logger"
)

// Pinger 可探活的 broker
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor 后台周期探测 broker，结果缓存在原子变量里，请求路径只读标志不做网络调用
type Monitor struct {
	pinger   Pinger
	timeout  time.Duration
	interval time.Duration
	healthy  atomic.Bool
	lastErr  atomic.Value // string
}

func NewMonitor(p Pinger, timeout, interval time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{pinger: p, timeout: timeout, interval: interval}
}

// Healthy 最近一次探测结果；从未探测过时为 false
func (m *Monitor) Healthy() bool { return m.healthy.Load() }

// LastError 最近一次失败原因，健康时为空
func (m *Monitor) LastError() string {
	if v, ok := m.lastErr.Load().(string); ok {
		return v
	}
	return ""
}

// Probe 在 timeout 内探测一次并更新标志
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.pinger.Ping(ctx)
	ok := err == nil
	prev := m.healthy.Swap(ok)
	if ok {
		m.lastErr.Store("")
	} else {
		m.lastErr.Store(err.Error())
	}
	if prev != ok {
		if ok {
			logger.Info("broker is up")
		} else {
			logger.Warn("broker is down, falling back to synchronous post creation", zap.Error(err))
		}
	}
	return ok
}

// MarkDown 请求路径上发现 broker 出错时调用，下一次探测前都视为不可用
func (m *Monitor) MarkDown(err error) {
	if err != nil {
		m.lastErr.Store(err.Error())
	}
	if m.healthy.Swap(false) {
		logger.Warn("broker marked down", zap.Error(err))
	}
}

// Start 立即探测一次，然后按 interval 周期探测；返回停止函数
func (m *Monitor) Start() func(context.Context) error {
	m.Probe(context.Background())

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.Probe(context.Background())
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
