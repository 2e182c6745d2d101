package poller

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Health reports the state of the polling loop.
type Health struct {
	Running       bool       `json:"running"`
	LastCycleTime *time.Time `json:"last_cycle_time,omitempty"`
}

// Manager owns the polling loop. It runs every monitor once per interval,
// sequentially, starting with an immediate cycle on Start.
type Manager struct {
	monitors []*Monitor
	interval time.Duration

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastCycle time.Time
}

// NewManager creates a polling manager for the given monitors.
func NewManager(monitors []*Monitor, interval time.Duration) *Manager {
	return &Manager{monitors: monitors, interval: interval}
}

// Start launches the polling loop. Starting an already running manager is
// an error.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("poller already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	log.WithField("interval", m.interval).Info("Starting job poller")
	go m.run(ctx)
	return nil
}

// Stop halts the polling loop and waits for an in-flight cycle to finish.
// Stopping a manager that is not running is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.mu.Unlock()

	cancel()
	<-done
	log.Info("Job poller stopped")
}

// Health returns whether the loop is running and when the last cycle
// finished.
func (m *Manager) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	health := Health{Running: m.running}
	if !m.lastCycle.IsZero() {
		last := m.lastCycle
		health.LastCycleTime = &last
	}
	return health
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

func (m *Manager) cycle(ctx context.Context) {
	for _, monitor := range m.monitors {
		if ctx.Err() != nil {
			return
		}
		monitor.RunCycle(ctx)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastCycle = now
	m.mu.Unlock()

	pollCyclesTotal.Inc()
	lastCycleTimestamp.Set(float64(now.Unix()))
}
