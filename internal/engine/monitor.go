package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

const DefaultDebounce = 2 * time.Second

// Monitor tracks online/offline transitions. The offline-to-online edge is
// debounced so a flapping connection cannot start overlapping sync passes;
// only after the connection holds for the debounce window does the trigger
// fire, exactly once per edge.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	debounce time.Duration
	timer    *time.Timer
	trigger  func()
}

// NewMonitor creates a Monitor that invokes trigger after a debounced
// offline-to-online transition. The property is assumed offline until the
// first probe or SetOnline call says otherwise.
func NewMonitor(debounce time.Duration, trigger func()) *Monitor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Monitor{
		debounce: debounce,
		trigger:  trigger,
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records the current connectivity. Going offline cancels any
// pending trigger; going online arms (or re-arms) the debounce timer.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.online {
		return
	}
	m.online = online

	if !online {
		log.Printf("[monitor] connectivity lost")
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		return
	}

	log.Printf("[monitor] connectivity regained, sync in %s", m.debounce)
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		stillOnline := m.online
		m.timer = nil
		m.mu.Unlock()
		if stillOnline && m.trigger != nil {
			m.trigger()
		}
	})
}

// Probe reports current connectivity; implementations typically ping the
// channel gateway or a well-known endpoint.
type Probe func(ctx context.Context) bool

// Run polls the probe until the context is cancelled, feeding transitions
// into the monitor.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, probe Probe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(probe(ctx))
		}
	}
}
