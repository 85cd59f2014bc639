// Package engine is the orchestration core of Braid. It owns the command
// path: every mutation of a thread - posting events, raising and resolving
// conflicts, operator actions on blocked threads - flows through the engine,
// which serializes commands per thread, enforces the lifecycle state
// machine, appends to the ledger and updates the in-memory projections
// (agent registry, activity feed, kanban boards).
//
// The ledger is the source of truth. Everything the engine holds in memory
// can be dropped and rebuilt from the per-thread event logs with Rebuild.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/braidhq/braid/internal/activity"
	"github.com/braidhq/braid/internal/kanban"
	"github.com/braidhq/braid/internal/registry"
	"github.com/braidhq/braid/pkg/ledger"
)

// PipelineProducerEngine is the pipeline producer ID used for events that
// have no originating agent (operator and engine-generated events). A
// daemon wiring a Pipeline must register it alongside the agent IDs.
const PipelineProducerEngine = "engine"

// Authority is the policy for who may resolve conflicts.
type Authority string

const (
	// AuthorityOperator restricts conflict resolution to the human operator.
	AuthorityOperator Authority = "operator"

	// AuthorityAgent restricts conflict resolution to agents.
	AuthorityAgent Authority = "agent"

	// AuthorityAny allows both.
	AuthorityAny Authority = "any"
)

// Validate checks if the Authority is a valid enum value.
func (a Authority) Validate() error {
	switch a {
	case AuthorityOperator, AuthorityAgent, AuthorityAny:
		return nil
	default:
		return fmt.Errorf("unknown resolution authority: %q", a)
	}
}

// Actor identifies who issued a command. An empty AgentID is the human
// operator.
type Actor struct {
	AgentID string
}

// Operator returns the human-operator actor.
func Operator() Actor {
	return Actor{}
}

// Options configures a new Engine. Store is required; zero values for the
// rest fall back to sensible defaults.
type Options struct {
	Store    *ledger.Store
	Registry *registry.Registry
	Feed     *activity.Feed

	// Pipeline, when set, carries feed entries through the bounded
	// producer queues instead of inserting synchronously. The pipeline's
	// producers must include every agent ID plus "engine".
	Pipeline *activity.Pipeline

	BoardCacheSize int
	TieBreak       kanban.TieBreak
	Authority      Authority
	Logger         zerolog.Logger
	Metrics        *Metrics
}

// Engine coordinates all thread mutations for one workspace.
type Engine struct {
	store     *ledger.Store
	registry  *registry.Registry
	feed      *activity.Feed
	pipeline  *activity.Pipeline
	boards    *kanban.Cache
	authority Authority
	log       zerolog.Logger
	metrics   *Metrics

	// seqMu guards the global sequence counter and the commit step.
	// Holding it across append + projection updates guarantees that the
	// live effect order equals GlobalSeq order, which is what makes
	// Rebuild reproduce the exact same projections.
	seqMu      sync.Mutex
	globalSeq  int64
	watermarks map[string]int64 // module ID -> last mutation's global seq

	// Per-thread semaphores. Channel-based rather than sync.Mutex so a
	// waiter can abandon the acquisition when its context expires.
	lockMu sync.Mutex
	locks  map[string]chan struct{}
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine requires a ledger store")
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Feed == nil {
		opts.Feed = activity.NewFeed(activity.DefaultCapacity)
	}
	if opts.TieBreak == "" {
		opts.TieBreak = kanban.TieBreakUpdated
	}
	if opts.Authority == "" {
		opts.Authority = AuthorityOperator
	}
	if err := opts.Authority.Validate(); err != nil {
		return nil, err
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	boards, err := kanban.NewCache(opts.BoardCacheSize, opts.TieBreak)
	if err != nil {
		return nil, err
	}

	if opts.Pipeline != nil {
		metrics := opts.Metrics
		if err := opts.Pipeline.SetObserver(func(activity.Entry) {
			metrics.FeedInserts.Inc()
		}); err != nil {
			return nil, fmt.Errorf("wiring pipeline observer: %w", err)
		}
	}

	return &Engine{
		store:      opts.Store,
		registry:   opts.Registry,
		feed:       opts.Feed,
		pipeline:   opts.Pipeline,
		boards:     boards,
		authority:  opts.Authority,
		log:        opts.Logger.With().Str("component", "engine").Logger(),
		metrics:    opts.Metrics,
		watermarks: make(map[string]int64),
		locks:      make(map[string]chan struct{}),
	}, nil
}

// Registry returns the engine's agent registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Feed returns the engine's activity feed.
func (e *Engine) Feed() *activity.Feed {
	return e.feed
}

// EventInput is the caller-supplied portion of a new event. IDs, sequence
// numbers and timestamps are assigned by the engine.
type EventInput struct {
	ThreadID   string
	Type       ledger.EventType
	AgentID    string
	Content    string
	LogicChain []string
	Meta       map[string]string
}

// PostEvent appends an event to a thread's log, deriving any lifecycle
// transition the event implies. Conflict-typed events are rejected here;
// conflicts enter the log only through RaiseConflict.
//
// The command runs under the thread's lock. If ctx expires before the lock
// is acquired the command is abandoned with no effect.
func (e *Engine) PostEvent(ctx context.Context, in EventInput) (*ledger.Event, error) {
	if in.Type == ledger.EventTypeConflict {
		return nil, fmt.Errorf("conflict events must be raised through RaiseConflict")
	}

	unlock, err := e.lockThread(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	thread, err := e.loadThread(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}

	next, err := deriveStatus(thread, in.Type, in.AgentID, in.Meta)
	if err != nil {
		e.metrics.InvalidTransitions.Inc()
		return nil, err
	}

	event := &ledger.Event{
		ID:          uuid.New().String(),
		ThreadID:    thread.ID,
		Type:        in.Type,
		AgentID:     in.AgentID,
		Content:     in.Content,
		LogicChain:  in.LogicChain,
		Meta:        in.Meta,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	return e.commit(ctx, thread, event, next)
}

// lockThread acquires the per-thread semaphore, creating it on first use.
// Returns the release func, or ctx.Err() if the context expires while
// waiting.
func (e *Engine) lockThread(ctx context.Context, threadID string) (func(), error) {
	e.lockMu.Lock()
	sem, ok := e.locks[threadID]
	if !ok {
		sem = make(chan struct{}, 1)
		e.locks[threadID] = sem
	}
	e.lockMu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadThread fetches a thread, mapping the store's not-found to the
// engine's sentinel.
func (e *Engine) loadThread(ctx context.Context, threadID string) (*ledger.Thread, error) {
	thread, err := e.store.GetThread(ctx, threadID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	return thread, nil
}

// commit assigns sequence numbers, appends the event, advances the thread
// and updates every projection. Caller must hold the thread's lock and
// must have validated the transition. The whole step runs under seqMu so
// projections observe events in GlobalSeq order.
func (e *Engine) commit(ctx context.Context, thread *ledger.Thread, event *ledger.Event, next ledger.ThreadStatus) (*ledger.Event, error) {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()

	gseq := e.globalSeq + 1
	event.Seq = thread.LastSeq + 1
	event.GlobalSeq = gseq

	if err := e.store.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	prev := thread.Status
	thread.Status = next
	thread.LastSeq = event.Seq
	thread.UpdatedSeq = gseq
	if err := e.store.UpdateThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to advance thread %s: %w", thread.ID, err)
	}

	e.globalSeq = gseq
	e.watermarks[thread.ModuleID] = gseq
	e.boards.Invalidate(thread.ModuleID)
	e.project(event, thread.ModuleID, true)
	e.metrics.EventsAppended.Inc()

	e.log.Debug().
		Str("thread_id", thread.ID).
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Int64("seq", event.Seq).
		Int64("global_seq", event.GlobalSeq).
		Str("status", string(thread.Status)).
		Msg("event appended")
	if prev != thread.Status {
		e.log.Info().
			Str("thread_id", thread.ID).
			Str("from", string(prev)).
			Str("to", string(thread.Status)).
			Msg("thread transitioned")
	}

	return event, nil
}

// project applies an event's effects to the registry and the activity
// feed. Used by both the live commit path and Rebuild; replay always
// inserts directly so the rebuilt feed is deterministic.
func (e *Engine) project(event *ledger.Event, moduleID string, live bool) {
	if event.AgentID != "" && event.Meta[ledger.MetaOutcome] != "" {
		latency, _ := strconv.ParseFloat(event.Meta[ledger.MetaLatencyMs], 64)
		success := event.Meta[ledger.MetaOutcome] == ledger.OutcomeSuccess
		if !e.registry.RecordTaskOutcome(event.AgentID, latency, success) {
			e.log.Warn().
				Str("agent_id", event.AgentID).
				Str("event_id", event.ID).
				Msg("task outcome for unregistered agent dropped")
		}
	}

	entry := activity.Entry{
		Seq:        event.GlobalSeq,
		EventID:    event.ID,
		ThreadID:   event.ThreadID,
		ModuleID:   moduleID,
		Type:       event.Type,
		AgentID:    event.AgentID,
		Content:    event.Content,
		InsertedAt: time.UnixMilli(event.CreatedAtMs),
	}
	if live && e.pipeline != nil {
		// The pipeline's consumer observer counts the insert once the
		// entry actually reaches the feed; dropped entries never count.
		producerID := event.AgentID
		if producerID == "" {
			producerID = PipelineProducerEngine
		}
		e.pipeline.Publish(producerID, entry)
	} else {
		e.feed.Insert(entry)
		e.metrics.FeedInserts.Inc()
	}
}
