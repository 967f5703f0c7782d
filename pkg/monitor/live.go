// Package monitor keeps a cost aggregation current while the data
// directory changes.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/watcher"
)

// pending is an issued request awaiting its settled state.
type pending struct {
	trigger Trigger
	seq     uint64
}

// liveMonitor implements the LiveMonitor interface.
type liveMonitor struct {
	config  Config
	logger  logger.Logger
	watcher watcher.Watcher
	source  Source
	orch    orchestrator.Orchestrator

	mu       sync.Mutex
	running  bool
	stopped  bool
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// requestMu orders Request calls against trigger lookups.
	requestMu sync.Mutex
	triggers  map[string]pending
	seq       uint64

	// Touched only by the forwarding goroutine.
	lastTotal float64
	settled   bool

	// Update channel for consumers
	updates chan Update
}

// New creates a new live monitor.
//
// The monitor consumes orch's updates; callers own w and orch and close
// them after the monitor.
func New(cfg Config, w watcher.Watcher, src Source, orch orchestrator.Orchestrator, log logger.Logger) (LiveMonitor, error) {
	if w == nil || src == nil || orch == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	m := &liveMonitor{
		config:   cfg,
		logger:   log,
		watcher:  w,
		source:   src,
		orch:     orch,
		stopChan: make(chan struct{}),
		triggers: make(map[string]pending),
		updates:  make(chan Update, 10),
	}

	log.Info("live monitor created",
		"refresh_interval", cfg.RefreshInterval,
		"project_filter", cfg.ProjectIDs)

	return m, nil
}

// Start implements LiveMonitor.Start.
func (m *liveMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return ErrMonitorClosed
	case m.running:
		return ErrMonitorRunning
	case m.stopped:
		return ErrMonitorStopped
	}

	if err := m.watcher.Start(ctx, []string{m.source.Dir()}); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if err := m.request(TriggerInitial); err != nil {
		m.stopped = true
		if stopErr := m.watcher.Stop(); stopErr != nil {
			m.logger.Warn("failed to stop watcher", "error", stopErr)
		}
		return fmt.Errorf("initial request failed: %w", err)
	}

	m.wg.Add(3)
	go m.forward(ctx)
	go m.processEvents(ctx)
	go m.periodicUpdates(ctx)

	m.running = true
	m.logger.Info("live monitor started", "dir", m.source.Dir())
	return nil
}

// Stop implements LiveMonitor.Stop.
func (m *liveMonitor) Stop() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	if !m.running {
		m.mu.Unlock()
		return ErrMonitorNotRunning
	}
	m.running = false
	m.stopped = true
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()

	if err := m.watcher.Stop(); err != nil {
		m.logger.Warn("failed to stop watcher", "error", err)
	}

	m.logger.Info("live monitor stopped")
	return nil
}

// Updates implements LiveMonitor.Updates.
func (m *liveMonitor) Updates() <-chan Update {
	return m.updates
}

// Close implements LiveMonitor.Close.
func (m *liveMonitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	wasRunning := m.running
	if m.running {
		m.running = false
		m.stopped = true
		close(m.stopChan)
	}
	m.mu.Unlock()

	m.wg.Wait()
	if wasRunning {
		if err := m.watcher.Stop(); err != nil {
			m.logger.Warn("failed to stop watcher", "error", err)
		}
	}

	close(m.updates)

	m.logger.Info("live monitor closed")
	return nil
}

// projectIDs returns the configured filter or every loaded project.
func (m *liveMonitor) projectIDs() []string {
	if len(m.config.ProjectIDs) > 0 {
		return m.config.ProjectIDs
	}
	return m.source.ProjectIDs()
}

// request starts an aggregation and remembers what caused it.
func (m *liveMonitor) request(trigger Trigger) error {
	m.requestMu.Lock()
	defer m.requestMu.Unlock()

	id, err := m.orch.Request(m.projectIDs())
	if err != nil {
		return err
	}
	m.seq++
	m.triggers[id] = pending{trigger: trigger, seq: m.seq}
	return nil
}

// triggerFor returns the trigger of a request. A settled state also
// forgets every request issued before it, since those were superseded.
func (m *liveMonitor) triggerFor(s orchestrator.State) Trigger {
	m.requestMu.Lock()
	defer m.requestMu.Unlock()

	p, ok := m.triggers[s.RequestID]
	if !ok {
		return TriggerTick
	}
	if !s.IsLoading() {
		for id, other := range m.triggers {
			if other.seq <= p.seq {
				delete(m.triggers, id)
			}
		}
	}
	return p.trigger
}

// reload rereads the source and re-aggregates.
func (m *liveMonitor) reload(trigger Trigger) {
	if err := m.source.Reload(); err != nil {
		m.logger.Warn("failed to reload data", "trigger", trigger, "error", err)
		return
	}
	if err := m.request(trigger); err != nil {
		m.logger.Warn("failed to request aggregation", "trigger", trigger, "error", err)
	}
}

// forward relays orchestrator states to the updates channel.
func (m *liveMonitor) forward(ctx context.Context) {
	defer m.wg.Done()

	states := m.orch.Updates()
	for {
		select {
		case <-ctx.Done():
			return

		case <-m.stopChan:
			return

		case s, ok := <-states:
			if !ok {
				m.logger.Info("orchestrator updates channel closed")
				return
			}

			update := Update{
				Timestamp: time.Now(),
				Trigger:   m.triggerFor(s),
				State:     s,
			}
			if s.Kind == orchestrator.KindReady || s.Kind == orchestrator.KindEmpty {
				total := s.Result.TotalCost()
				if m.settled {
					update.Delta = total - m.lastTotal
				}
				m.lastTotal = total
				m.settled = true
			}

			select {
			case m.updates <- update:
			case <-m.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// processEvents handles file change events from the watcher.
func (m *liveMonitor) processEvents(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case <-m.stopChan:
			return

		case event, ok := <-m.watcher.Events():
			if !ok {
				m.logger.Info("watcher events channel closed")
				return
			}

			m.logger.Debug("file change detected",
				"path", event.Path,
				"op", event.Op.String())
			m.reload(TriggerFile)

		case err, ok := <-m.watcher.Errors():
			if !ok {
				m.logger.Info("watcher errors channel closed")
				return
			}

			m.logger.Error("watcher error", "error", err)
		}
	}
}

// periodicUpdates reloads on a timer so missed events are recovered.
func (m *liveMonitor) periodicUpdates(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-m.stopChan:
			return

		case <-ticker.C:
			m.reload(TriggerTick)
		}
	}
}
