// Package producer runs the goroutines that feed agent activity into the
// engine. Each producer represents one agent working a set of threads and
// posts real events through the engine's command path; nothing here
// fabricates dashboard state on the client side.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/braidhq/braid/internal/engine"
)

// Step is one unit of scripted agent work: an event to post, and how long
// the producer idles before posting it.
type Step struct {
	Delay time.Duration
	Input engine.EventInput
}

// Source yields the steps a producer performs. Next returns false when the
// source is exhausted.
type Source interface {
	Next() (Step, bool)
}

// Script is a fixed-sequence Source, used by the daemon's demo workload
// and by tests.
type Script struct {
	steps []Step
	pos   int
}

// NewScript creates a Source that yields the given steps in order.
func NewScript(steps []Step) *Script {
	return &Script{steps: steps}
}

// Next returns the next scripted step.
func (s *Script) Next() (Step, bool) {
	if s.pos >= len(s.steps) {
		return Step{}, false
	}
	step := s.steps[s.pos]
	s.pos++
	return step, true
}

// Producer posts one agent's events into the engine.
type Producer struct {
	agentID string
	source  Source
	engine  *engine.Engine
	log     zerolog.Logger
}

// New creates a producer for one agent.
func New(eng *engine.Engine, agentID string, source Source, log zerolog.Logger) *Producer {
	return &Producer{
		agentID: agentID,
		source:  source,
		engine:  eng,
		log:     log.With().Str("component", "producer").Str("agent_id", agentID).Logger(),
	}
}

// Run drains the source, posting each step's event after its delay.
// Returns nil when the source is exhausted or the context is cancelled.
// Command rejections (guard violations, missing threads) are logged and
// skipped: a producer racing the lifecycle is normal, the engine's state
// machine is the arbiter.
func (p *Producer) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		step, ok := p.source.Next()
		if !ok {
			return nil
		}

		if step.Delay > 0 {
			timer.Reset(step.Delay)
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		input := step.Input
		if input.AgentID == "" {
			input.AgentID = p.agentID
		}

		if _, err := p.engine.PostEvent(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn().
				Err(err).
				Str("thread_id", input.ThreadID).
				Msg("event rejected")
		}
	}
}

// Runner supervises a set of producers.
type Runner struct {
	producers []*Producer
}

// NewRunner creates a runner over the given producers.
func NewRunner(producers ...*Producer) *Runner {
	return &Runner{producers: producers}
}

// Run starts every producer and blocks until all have finished or the
// context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range r.producers {
		producer := p
		g.Go(func() error {
			if err := producer.Run(gctx); err != nil {
				return fmt.Errorf("producer %s: %w", producer.agentID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
