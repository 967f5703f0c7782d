package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// stubFetcher implements Fetcher for testing.
type stubFetcher struct {
	mu      sync.Mutex
	records map[string][]bucket.Record
	errs    map[string]error
	gates   map[string]chan struct{}
	hang    map[string]bool
	calls   map[string]int
	delay   time.Duration

	inFlight    int32
	maxInFlight int32
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		records: make(map[string][]bucket.Record),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		hang:    make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (s *stubFetcher) FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		max := atomic.LoadInt32(&s.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&s.maxInFlight, max, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls[groupID]++
	gate := s.gates[groupID]
	hang := s.hang[groupID]
	delay := s.delay
	s.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	// Gated fetches ignore cancellation to simulate a late response.
	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[groupID]; err != nil {
		return nil, err
	}
	return append([]bucket.Record{}, s.records[groupID]...), nil
}

func (s *stubFetcher) set(groupID string, records ...bucket.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[groupID] = records
}

func (s *stubFetcher) callCount(groupID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[groupID]
}

func at(day, hour int) time.Time {
	return time.Date(2026, 1, day, hour, 0, 0, 0, time.UTC)
}

func newTestOrchestrator(t *testing.T, f Fetcher, cfg Config) Orchestrator {
	t.Helper()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	o := New(cfg, f, logger.Noop())
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func waitState(t *testing.T, o Orchestrator) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := o.Wait(ctx)
	require.NoError(t, err)
	return state
}

func TestAggregate(t *testing.T) {
	f := newStubFetcher()
	f.set("a", bucket.Record{GroupID: "ignored", Timestamp: at(1, 9), Cost: 1})
	f.set("b", bucket.Record{Timestamp: at(5, 0), Cost: 2}, bucket.Record{Timestamp: at(8, 20), Cost: 3})

	result, err := Aggregate(context.Background(), f, []string{"a", "b"}, 2, bucket.WithLocation(time.UTC))
	require.NoError(t, err)

	assert.Equal(t, bucket.UnitDay, result.Unit)
	assert.Len(t, result.Buckets, 8)
	assert.Zero(t, result.Dropped)
	assert.Equal(t, map[string]float64{"a": 1, "b": 5}, result.GroupTotals)
}

func TestAggregate_Empty(t *testing.T) {
	result, err := Aggregate(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.NotNil(t, result.GroupTotals)

	_, err = Aggregate(context.Background(), nil, []string{"a"}, 0)
	assert.ErrorIs(t, err, ErrNilFetcher)
}

func TestAggregate_AllOrNothing(t *testing.T) {
	f := newStubFetcher()
	f.set("ok", bucket.Record{Timestamp: at(1, 9), Cost: 1})
	f.errs["broken"] = errBoom

	result, err := Aggregate(context.Background(), f, []string{"ok", "broken"}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "broken", fetchErr.GroupID)
	assert.Empty(t, result.Buckets)
	assert.Empty(t, result.GroupTotals)
}

func TestAggregate_ConcurrencyLimit(t *testing.T) {
	f := newStubFetcher()
	f.delay = 20 * time.Millisecond
	ids := []string{"a", "b", "c", "d", "e", "f"}
	for i, id := range ids {
		f.set(id, bucket.Record{Timestamp: at(i+1, i), Cost: 1})
	}

	result, err := Aggregate(context.Background(), f, ids, 2, bucket.WithLocation(time.UTC))
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&f.maxInFlight), int32(2))
	assert.InDelta(t, 6.0, result.TotalCost(), 1e-9)
}

func TestOrchestrator_InitialState(t *testing.T) {
	o := newTestOrchestrator(t, newStubFetcher(), Config{})

	state := o.State()
	assert.Equal(t, KindIdle, state.Kind)
	assert.False(t, state.IsLoading())
	assert.True(t, state.Result.IsEmpty())

	// Nothing in flight, Wait returns immediately.
	assert.Equal(t, KindIdle, waitState(t, o).Kind)
}

func TestOrchestrator_Ready(t *testing.T) {
	f := newStubFetcher()
	f.set("docs-site", bucket.Record{Timestamp: at(1, 0), Cost: 0.5}, bucket.Record{Timestamp: at(6, 9), Cost: 0.25})
	o := newTestOrchestrator(t, f, Config{})

	id, err := o.Request([]string{"docs-site", "docs-site", ""})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	state := waitState(t, o)
	assert.Equal(t, KindReady, state.Kind)
	assert.Equal(t, id, state.RequestID)
	assert.Equal(t, []string{"docs-site"}, state.GroupIDs)
	assert.Equal(t, bucket.UnitDay, state.Result.Unit)
	assert.InDelta(t, 0.75, state.Result.GroupTotals["docs-site"], 1e-9)
	assert.Equal(t, 1, f.callCount("docs-site"))
}

func TestOrchestrator_Updates(t *testing.T) {
	f := newStubFetcher()
	f.set("a", bucket.Record{Timestamp: at(1, 9), Cost: 1})
	o := newTestOrchestrator(t, f, Config{})

	_, err := o.Request([]string{"a"})
	require.NoError(t, err)

	var kinds []Kind
	timeout := time.After(5 * time.Second)
	for len(kinds) < 2 {
		select {
		case s := <-o.Updates():
			kinds = append(kinds, s.Kind)
		case <-timeout:
			t.Fatal("timed out waiting for updates")
		}
	}
	assert.Equal(t, []Kind{KindLoading, KindReady}, kinds)
}

func TestOrchestrator_Empty(t *testing.T) {
	f := newStubFetcher()
	o := newTestOrchestrator(t, f, Config{})

	_, err := o.Request([]string{"docs-site"})
	require.NoError(t, err)

	state := waitState(t, o)
	assert.Equal(t, KindEmpty, state.Kind)
	assert.True(t, state.Result.IsEmpty())
}

func TestOrchestrator_EmptyGroupList(t *testing.T) {
	f := newStubFetcher()
	f.set("a", bucket.Record{Timestamp: at(1, 9), Cost: 1})
	o := newTestOrchestrator(t, f, Config{})

	_, err := o.Request([]string{"a"})
	require.NoError(t, err)
	require.Equal(t, KindReady, waitState(t, o).Kind)

	_, err = o.Request(nil)
	require.NoError(t, err)

	state := o.State()
	assert.Equal(t, KindIdle, state.Kind)
	assert.True(t, state.Result.IsEmpty())
	assert.Empty(t, state.GroupIDs)
}

func TestOrchestrator_Error(t *testing.T) {
	f := newStubFetcher()
	f.set("ok", bucket.Record{Timestamp: at(1, 9), Cost: 1})
	f.errs["broken"] = errBoom
	o := newTestOrchestrator(t, f, Config{})

	_, err := o.Request([]string{"ok", "broken"})
	require.NoError(t, err)

	state := waitState(t, o)
	assert.Equal(t, KindError, state.Kind)
	assert.Contains(t, state.Err, "broken")
	assert.Contains(t, state.Err, "boom")
	assert.True(t, state.Result.IsEmpty())
}

func TestOrchestrator_Timeout(t *testing.T) {
	f := newStubFetcher()
	f.hang["slow"] = true
	o := newTestOrchestrator(t, f, Config{Timeout: 20 * time.Millisecond})

	_, err := o.Request([]string{"slow"})
	require.NoError(t, err)

	state := waitState(t, o)
	assert.Equal(t, KindError, state.Kind)
	assert.Contains(t, state.Err, context.DeadlineExceeded.Error())
}

// A superseded request that completes late must not overwrite the newer state.
func TestOrchestrator_LateResultDiscarded(t *testing.T) {
	f := newStubFetcher()
	gate := make(chan struct{})
	f.gates["slow"] = gate
	f.set("slow", bucket.Record{Timestamp: at(1, 9), Cost: 100})
	f.set("fast", bucket.Record{Timestamp: at(1, 9), Cost: 1})

	o := newTestOrchestrator(t, f, Config{})

	first, err := o.Request([]string{"slow"})
	require.NoError(t, err)
	assert.True(t, o.State().IsLoading())

	second, err := o.Request([]string{"fast"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	state := waitState(t, o)
	require.Equal(t, KindReady, state.Kind)
	assert.Equal(t, second, state.RequestID)

	// Let the superseded fetch complete while the orchestrator stays open.
	close(gate)
	o.(*orchestrator).wg.Wait()

	final := o.State()
	assert.Equal(t, second, final.RequestID)
	assert.Equal(t, KindReady, final.Kind)
	assert.Equal(t, map[string]float64{"fast": 1}, final.Result.GroupTotals)
	assert.Equal(t, 1, f.callCount("slow"))

drain:
	for {
		select {
		case s := <-o.Updates():
			if s.RequestID == first {
				assert.Equal(t, KindLoading, s.Kind, "late result published")
			}
		default:
			break drain
		}
	}
}

func TestOrchestrator_Refresh(t *testing.T) {
	f := newStubFetcher()
	f.set("a", bucket.Record{Timestamp: at(1, 9), Cost: 1})
	o := newTestOrchestrator(t, f, Config{})

	_, err := o.Request([]string{"a"})
	require.NoError(t, err)
	require.Equal(t, 1.0, waitState(t, o).Result.GroupTotals["a"])

	f.set("a", bucket.Record{Timestamp: at(1, 9), Cost: 1}, bucket.Record{Timestamp: at(1, 9), Cost: 2})
	_, err = o.Refresh()
	require.NoError(t, err)

	state := waitState(t, o)
	assert.Equal(t, 3.0, state.Result.GroupTotals["a"])
	assert.Equal(t, 2, f.callCount("a"))
}

func TestOrchestrator_Close(t *testing.T) {
	o := New(Config{}, newStubFetcher(), logger.Noop())

	require.NoError(t, o.Close())
	require.NoError(t, o.Close())

	_, err := o.Request([]string{"a"})
	assert.ErrorIs(t, err, ErrOrchestratorClosed)

	_, open := <-o.Updates()
	assert.False(t, open)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "idle", KindIdle.String())
	assert.Equal(t, "loading", KindLoading.String())
	assert.Equal(t, "ready", KindReady.String())
	assert.Equal(t, "empty", KindEmpty.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
