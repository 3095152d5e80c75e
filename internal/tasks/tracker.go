// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tasks runs research pipelines in the background and tracks
// their state in an in-memory registry.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// StartTimeLayout formats TaskState.StartTime.
const StartTimeLayout = "2006-01-02T15:04:05.000000"

// Runner executes one full research pipeline and returns the report path.
// *research.Pipeline implements it.
type Runner interface {
	RunResearch(ctx context.Context, topic string) (string, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, topic string) (string, error)

// RunResearch calls f.
func (f RunnerFunc) RunResearch(ctx context.Context, topic string) (string, error) {
	return f(ctx, topic)
}

// Journal persists task transitions so other processes can see them.
// *archive.Store implements it.
//
// ClaimTask stores the initial running state and must fail with
// types.ErrTaskExists when the id is already taken. RecordTask stores
// later transitions of a claimed id.
type Journal interface {
	ClaimTask(ctx context.Context, st types.TaskState) error
	RecordTask(ctx context.Context, st types.TaskState) error
}

type entry struct {
	state types.TaskState
	done  chan struct{}
}

// Tracker is the background task registry. Entries are never removed.
type Tracker struct {
	runner  Runner
	journal Journal
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	tasks map[string]*entry
	order []string
	wg    sync.WaitGroup

	// submitMu serializes id allocation across Submit calls.
	submitMu sync.Mutex
}

// NewTracker returns a Tracker that runs tasks with runner. journal and
// logger may be nil.
func NewTracker(runner Runner, journal Journal, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		runner:  runner,
		journal: journal,
		logger:  logger,
		now:     time.Now,
		tasks:   make(map[string]*entry),
	}
}

// Submit registers a running task for topic and starts its worker. The
// entry exists before Submit returns, so an immediate Status call never
// reports not_found. The worker ignores cancellation of ctx; there is no
// way to cancel a task once submitted.
func (t *Tracker) Submit(ctx context.Context, topic string) string {
	workCtx := context.WithoutCancel(ctx)
	now := t.now()

	t.submitMu.Lock()
	st := t.claim(workCtx, types.TaskState{
		Query:     topic,
		Status:    types.TaskRunning,
		StartTime: now.Format(StartTimeLayout),
	}, now)
	e := &entry{state: st, done: make(chan struct{})}
	t.mu.Lock()
	t.tasks[st.ID] = e
	t.order = append(t.order, st.ID)
	t.mu.Unlock()
	t.submitMu.Unlock()

	t.logger.Info("background research started", zap.String("id", st.ID), zap.String("topic", topic))

	t.wg.Add(1)
	go t.run(workCtx, e)
	return st.ID
}

// claim assigns st an id of the form research_<unix seconds>, appending
// _2, _3, ... while the id is tracked here or claimed in the journal by
// another process. A journal failure other than a conflict is logged and
// the id is used anyway. Callers hold t.submitMu.
func (t *Tracker) claim(ctx context.Context, st types.TaskState, now time.Time) types.TaskState {
	base := "research_" + strconv.FormatInt(now.Unix(), 10)
	for n := 1; ; n++ {
		st.ID = base
		if n > 1 {
			st.ID = base + "_" + strconv.Itoa(n)
		}
		if t.tracked(st.ID) {
			continue
		}
		if t.journal == nil {
			return st
		}
		err := t.journal.ClaimTask(ctx, st)
		if errors.Is(err, types.ErrTaskExists) {
			t.logger.Debug("task id claimed elsewhere", zap.String("id", st.ID))
			continue
		}
		if err != nil {
			t.logger.Warn("journaling task failed", zap.String("id", st.ID), zap.Error(err))
		}
		return st
	}
}

func (t *Tracker) tracked(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.tasks[id]
	return ok
}

func (t *Tracker) run(ctx context.Context, e *entry) {
	defer t.wg.Done()
	defer close(e.done)

	path, err := t.execute(ctx, e.state.Query)

	t.mu.Lock()
	if err != nil {
		e.state.Status = types.TaskError
		e.state.Error = err.Error()
	} else {
		e.state.Status = types.TaskCompleted
		e.state.FilePath = path
	}
	snapshot := e.state
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("background research failed", zap.String("id", snapshot.ID), zap.Error(err))
	} else {
		t.logger.Info("background research completed", zap.String("id", snapshot.ID), zap.String("path", path))
	}
	t.record(ctx, snapshot)
}

// execute runs the pipeline, turning a panic into an error.
func (t *Tracker) execute(ctx context.Context, topic string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.runner.RunResearch(ctx, topic)
}

func (t *Tracker) record(ctx context.Context, st types.TaskState) {
	if t.journal == nil {
		return
	}
	if err := t.journal.RecordTask(ctx, st); err != nil {
		t.logger.Warn("journaling task failed", zap.String("id", st.ID), zap.Error(err))
	}
}

// Status returns a snapshot of the task, or a state with status not_found.
func (t *Tracker) Status(id string) types.TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.tasks[id]
	if !ok {
		return types.TaskState{Status: types.TaskNotFound}
	}
	return e.state
}

// ListActive returns every tracked task in submission order, including
// finished ones.
func (t *Tracker) ListActive() []types.TaskSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.TaskSummary, 0, len(t.order))
	for _, id := range t.order {
		st := t.tasks[id].state
		out = append(out, types.TaskSummary{
			ID:        st.ID,
			Query:     st.Query,
			Status:    st.Status,
			StartTime: st.StartTime,
		})
	}
	return out
}

// Wait blocks until the task finishes or timeout elapses and returns its
// latest state. A non-positive timeout waits indefinitely. The boolean is
// false when the task is unknown or still running.
func (t *Tracker) Wait(id string, timeout time.Duration) (types.TaskState, bool) {
	t.mu.RLock()
	e, ok := t.tasks[id]
	t.mu.RUnlock()
	if !ok {
		return types.TaskState{Status: types.TaskNotFound}, false
	}

	if timeout <= 0 {
		<-e.done
		return t.Status(id), true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-e.done:
		return t.Status(id), true
	case <-timer.C:
		return t.Status(id), false
	}
}

// Shutdown waits for all workers to finish or ctx to end.
func (t *Tracker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
