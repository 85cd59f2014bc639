package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store provides workspace-scoped Redis operations for the ledger.
// All keys and channels are automatically namespaced with the workspace name.
// The store is safe for concurrent use from multiple goroutines; it performs
// no cross-key coordination of its own. Serializing mutations per thread is
// the engine's responsibility.
type Store struct {
	rdb       *redis.Client
	workspace string
}

// NewStore creates a new ledger store for the specified workspace namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - workspace: workspace namespace (must not be empty)
//
// Returns an error if workspace is empty.
func NewStore(redisOpts *redis.Options, workspace string) (*Store, error) {
	if workspace == "" {
		return nil, fmt.Errorf("workspace name cannot be empty")
	}

	return &Store{
		rdb:       redis.NewClient(redisOpts),
		workspace: workspace,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Workspace returns the workspace namespace this store is scoped to.
func (s *Store) Workspace() string {
	return s.workspace
}

// CreateWorkspace writes the workspace record.
// Idempotent - writing the same workspace twice is safe.
func (s *Store) CreateWorkspace(ctx context.Context, w *Workspace) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}

	key := WorkspaceKey(s.workspace)
	if err := s.rdb.HSet(ctx, key, WorkspaceToHash(w)).Err(); err != nil {
		return fmt.Errorf("failed to write workspace to Redis: %w", err)
	}
	return nil
}

// GetWorkspace retrieves the workspace record.
// Returns (nil, redis.Nil) if no workspace has been provisioned.
func (s *Store) GetWorkspace(ctx context.Context) (*Workspace, error) {
	hashData, err := s.rdb.HGetAll(ctx, WorkspaceKey(s.workspace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToWorkspace(hashData)
}

// CreateModule writes a module and registers it in the workspace module set.
func (s *Store) CreateModule(ctx context.Context, m *Module) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid module: %w", err)
	}

	key := ModuleKey(s.workspace, m.ID)
	if err := s.rdb.HSet(ctx, key, ModuleToHash(m)).Err(); err != nil {
		return fmt.Errorf("failed to write module to Redis: %w", err)
	}
	if err := s.rdb.SAdd(ctx, ModulesKey(s.workspace), m.ID).Err(); err != nil {
		return fmt.Errorf("failed to index module: %w", err)
	}
	return nil
}

// GetModule retrieves a module by ID.
// Returns (nil, redis.Nil) if the module doesn't exist.
func (s *Store) GetModule(ctx context.Context, moduleID string) (*Module, error) {
	hashData, err := s.rdb.HGetAll(ctx, ModuleKey(s.workspace, moduleID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read module from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToModule(hashData)
}

// ListModuleIDs returns all module IDs in the workspace, unordered.
func (s *Store) ListModuleIDs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, ModulesKey(s.workspace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return ids, nil
}

// CreateThread writes a thread and registers it in its module's thread set.
func (s *Store) CreateThread(ctx context.Context, t *Thread) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid thread: %w", err)
	}

	key := ThreadKey(s.workspace, t.ID)
	if err := s.rdb.HSet(ctx, key, ThreadToHash(t)).Err(); err != nil {
		return fmt.Errorf("failed to write thread to Redis: %w", err)
	}
	if err := s.rdb.SAdd(ctx, ModuleThreadsKey(s.workspace, t.ModuleID), t.ID).Err(); err != nil {
		return fmt.Errorf("failed to index thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread by ID.
// Returns (nil, redis.Nil) if the thread doesn't exist.
func (s *Store) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	hashData, err := s.rdb.HGetAll(ctx, ThreadKey(s.workspace, threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToThread(hashData)
}

// UpdateThread replaces an existing thread with new data (full HSET
// replacement). Used by the engine to advance status, sequence counters and
// the active conflict reference as commands are applied.
func (s *Store) UpdateThread(ctx context.Context, t *Thread) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid thread: %w", err)
	}

	key := ThreadKey(s.workspace, t.ID)
	if err := s.rdb.HSet(ctx, key, ThreadToHash(t)).Err(); err != nil {
		return fmt.Errorf("failed to update thread in Redis: %w", err)
	}
	return nil
}

// ListThreadIDs returns all thread IDs belonging to a module, unordered.
func (s *Store) ListThreadIDs(ctx context.Context, moduleID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, ModuleThreadsKey(s.workspace, moduleID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return ids, nil
}

// AppendEvent writes an event, adds it to its thread's ordered log and
// publishes the full event JSON to the workspace thread_events channel.
// Validates the event before writing - this is the ingestion boundary that
// rejects malformed events (including malformed conflict options) before
// they can reach the log.
//
// The event hash is written before the ZADD so that any event ID visible in
// a thread log can always be fetched.
func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	hash, err := EventToHash(e)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := s.rdb.HSet(ctx, EventKey(s.workspace, e.ID), hash).Err(); err != nil {
		return fmt.Errorf("failed to write event to Redis: %w", err)
	}

	z := redis.Z{
		Score:  EventScore(e.Seq),
		Member: e.ID,
	}
	if err := s.rdb.ZAdd(ctx, ThreadEventsKey(s.workspace, e.ThreadID), z).Err(); err != nil {
		return fmt.Errorf("failed to add event to thread log: %w", err)
	}

	eventJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event for publish: %w", err)
	}
	if err := s.rdb.Publish(ctx, ThreadEventsChannel(s.workspace), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event by ID.
// Returns (nil, redis.Nil) if the event doesn't exist.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	hashData, err := s.rdb.HGetAll(ctx, EventKey(s.workspace, eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToEvent(hashData)
}

// ListEvents returns a thread's full event log in ascending sequence order.
// Returns an empty slice for a thread with no events (not an error).
func (s *Store) ListEvents(ctx context.Context, threadID string) ([]*Event, error) {
	ids, err := s.rdb.ZRange(ctx, ThreadEventsKey(s.workspace, threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread log: %w", err)
	}

	events := make([]*Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.GetEvent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// CreateConflict writes a conflict record.
func (s *Store) CreateConflict(ctx context.Context, c *Conflict) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid conflict: %w", err)
	}

	hash, err := ConflictToHash(c)
	if err != nil {
		return fmt.Errorf("failed to serialize conflict: %w", err)
	}
	if err := s.rdb.HSet(ctx, ConflictKey(s.workspace, c.ID), hash).Err(); err != nil {
		return fmt.Errorf("failed to write conflict to Redis: %w", err)
	}
	return nil
}

// GetConflict retrieves a conflict by ID.
// Returns (nil, redis.Nil) if the conflict doesn't exist.
func (s *Store) GetConflict(ctx context.Context, conflictID string) (*Conflict, error) {
	hashData, err := s.rdb.HGetAll(ctx, ConflictKey(s.workspace, conflictID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conflict from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToConflict(hashData)
}

// UpdateConflict replaces an existing conflict with new data.
// Used by the engine to record resolutions. The engine's per-thread lock
// discipline makes the read-modify-write sequence safe.
func (s *Store) UpdateConflict(ctx context.Context, c *Conflict) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid conflict: %w", err)
	}

	hash, err := ConflictToHash(c)
	if err != nil {
		return fmt.Errorf("failed to serialize conflict: %w", err)
	}
	if err := s.rdb.HSet(ctx, ConflictKey(s.workspace, c.ID), hash).Err(); err != nil {
		return fmt.Errorf("failed to update conflict in Redis: %w", err)
	}
	return nil
}

// PutAgent writes an agent record and registers it in the agent set.
func (s *Store) PutAgent(ctx context.Context, a *Agent) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid agent: %w", err)
	}

	if err := s.rdb.HSet(ctx, AgentKey(s.workspace, a.ID), AgentToHash(a)).Err(); err != nil {
		return fmt.Errorf("failed to write agent to Redis: %w", err)
	}
	if err := s.rdb.SAdd(ctx, AgentsKey(s.workspace), a.ID).Err(); err != nil {
		return fmt.Errorf("failed to index agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
// Returns (nil, redis.Nil) if the agent doesn't exist.
func (s *Store) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	hashData, err := s.rdb.HGetAll(ctx, AgentKey(s.workspace, agentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read agent from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}
	return HashToAgent(hashData)
}

// ListAgentIDs returns all agent IDs in the workspace, unordered.
func (s *Store) ListAgentIDs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, AgentsKey(s.workspace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return ids, nil
}

// Subscription represents an active Pub/Sub subscription to appended events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of appended events.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to appended-event notifications for this
// workspace. Returns a Subscription that delivers full event objects.
// Caller must call subscription.Close() when done. Context cancellation
// also stops the subscription.
//
// Events are delivered on a buffered channel (size 32) to reduce blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery); consumers that need completeness replay the
// per-thread logs instead.
func (s *Store) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, ThreadEventsChannel(s.workspace))

	eventsChan := make(chan *Event, 32)
	errorsChan := make(chan error, 32)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error
// (redis.Nil). Use this to check whether a Get returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
