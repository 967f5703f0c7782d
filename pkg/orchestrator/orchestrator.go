package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/google/uuid"
)

// orchestrator implements the Orchestrator interface.
type orchestrator struct {
	config  Config
	fetcher Fetcher
	logger  logger.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.RWMutex
	closed     bool
	state      State
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	lastGroups []string

	// Update channel for consumers
	updates chan State

	wg sync.WaitGroup
}

// New creates a new orchestrator in the idle state.
//
// Parameters:
//   - cfg: Orchestrator configuration
//   - f: Record source for every request
//   - log: Logger instance
func New(cfg Config, f Fetcher, log logger.Logger) Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.UpdateBuffer < 1 {
		cfg.UpdateBuffer = 10
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	close(done)

	o := &orchestrator{
		config:     cfg,
		fetcher:    f,
		logger:     log,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		state:      idleState(""),
		done:       done,
		updates:    make(chan State, cfg.UpdateBuffer),
	}

	log.Debug("orchestrator created",
		"concurrency", cfg.Concurrency,
		"timeout", cfg.Timeout,
		"location", cfg.Location.String())

	return o
}

func idleState(requestID string) State {
	return State{
		Kind:      KindIdle,
		RequestID: requestID,
		GroupIDs:  []string{},
		Result:    bucket.Aggregate(nil),
		UpdatedAt: time.Now(),
	}
}

// Request implements Orchestrator.Request.
func (o *orchestrator) Request(groupIDs []string) (string, error) {
	ids := dedupe(groupIDs)
	requestID := uuid.NewString()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return "", ErrOrchestratorClosed
	}

	o.generation++
	gen := o.generation
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.lastGroups = ids

	if len(ids) == 0 {
		done := make(chan struct{})
		close(done)
		o.done = done
		o.setState(idleState(requestID))
		o.logger.Debug("empty request, state idle", "request_id", requestID)
		return requestID, nil
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(o.baseCtx, o.config.Timeout)
	} else {
		ctx, cancel = context.WithCancel(o.baseCtx)
	}
	o.cancel = cancel
	o.done = make(chan struct{})

	o.setState(State{
		Kind:      KindLoading,
		RequestID: requestID,
		GroupIDs:  append([]string{}, ids...),
		Result:    bucket.Aggregate(nil),
		UpdatedAt: time.Now(),
	})

	o.logger.Info("aggregation requested",
		"request_id", requestID,
		"groups", len(ids))

	o.wg.Add(1)
	go o.run(ctx, cancel, gen, requestID, ids, o.done)

	return requestID, nil
}

// Refresh implements Orchestrator.Refresh.
func (o *orchestrator) Refresh() (string, error) {
	o.mu.RLock()
	ids := append([]string{}, o.lastGroups...)
	o.mu.RUnlock()

	return o.Request(ids)
}

// run performs one request and publishes its outcome unless superseded.
func (o *orchestrator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, requestID string, ids []string, done chan struct{}) {
	defer o.wg.Done()
	defer close(done)
	defer cancel()

	start := time.Now()
	result, err := Aggregate(ctx, o.fetcher, ids, o.config.Concurrency, bucket.WithLocation(o.config.Location))

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || gen != o.generation {
		o.logger.Debug("discarding stale result",
			"request_id", requestID,
			"error", err)
		return
	}
	o.cancel = nil

	next := State{
		RequestID: requestID,
		GroupIDs:  append([]string{}, ids...),
		UpdatedAt: time.Now(),
	}

	switch {
	case err != nil:
		next.Kind = KindError
		next.Result = bucket.Aggregate(nil)
		next.Err = err.Error()
		o.logger.Warn("aggregation failed",
			"request_id", requestID,
			"error", err)
	case result.IsEmpty():
		next.Kind = KindEmpty
		next.Result = result
	default:
		next.Kind = KindReady
		next.Result = result
	}

	if result.Dropped > 0 {
		o.logger.Warn("records outside bucket range",
			"request_id", requestID,
			"dropped", result.Dropped)
	}

	o.logger.Info("aggregation complete",
		"request_id", requestID,
		"state", next.Kind.String(),
		"buckets", len(next.Result.Buckets),
		"unit", next.Result.Unit.String(),
		"duration", time.Since(start))

	o.setState(next)
}

// setState replaces the state and publishes it. Callers hold o.mu.
func (o *orchestrator) setState(s State) {
	o.state = s

	// Send update (non-blocking)
	select {
	case o.updates <- s:
	default:
		o.logger.Warn("updates channel full, dropping update",
			"state", s.Kind.String())
	}
}

// State implements Orchestrator.State.
func (o *orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.state
}

// Updates implements Orchestrator.Updates.
func (o *orchestrator) Updates() <-chan State {
	return o.updates
}

// Wait implements Orchestrator.Wait.
func (o *orchestrator) Wait(ctx context.Context) (State, error) {
	for {
		o.mu.RLock()
		done := o.done
		gen := o.generation
		o.mu.RUnlock()

		select {
		case <-ctx.Done():
			return o.State(), ctx.Err()
		case <-done:
		}

		o.mu.RLock()
		superseded := gen != o.generation
		state := o.state
		o.mu.RUnlock()

		if !superseded {
			return state, nil
		}
	}
}

// Close implements Orchestrator.Close.
func (o *orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.baseCancel()
	close(o.updates)
	o.mu.Unlock()

	o.wg.Wait()

	o.logger.Info("orchestrator closed")
	return nil
}
