// Package api exposes debates over HTTP: a JSON REST surface plus an SSE
// stream of debate events.
package api

import (
	"context"
	"sync"

	"log/slog"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/events"
	"github.com/agora-ai/agora/internal/logging"
)

// DebateService coordinates the scheduler, the store and the event bus on
// behalf of the HTTP handlers. It serializes round execution per debate:
// the scheduler requires exclusive ownership of the state it mutates.
type DebateService struct {
	scheduler *core.Scheduler
	store     core.DebateStore
	bus       *events.EventBus
	logger    *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDebateService wires a service. bus may be nil; events are then dropped.
func NewDebateService(scheduler *core.Scheduler, store core.DebateStore, bus *events.EventBus, logger *logging.Logger) *DebateService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DebateService{
		scheduler: scheduler,
		store:     store,
		bus:       bus,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on one debate.
func (s *DebateService) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

func (s *DebateService) dropLock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

// Create starts a new debate on topic and persists it.
func (s *DebateService) Create(ctx context.Context, topic string) (*core.DebateState, error) {
	state, err := s.scheduler.StartDebate(ctx, topic)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}
	s.publish(events.NewDebateStartedEvent(state.ID, state.Topic, state.Stance.For, state.Stance.Against))
	return state, nil
}

// Get returns one debate by ID.
func (s *DebateService) Get(ctx context.Context, id string) (*core.DebateState, error) {
	return s.store.Load(ctx, id)
}

// List returns all debates, most recently updated first.
func (s *DebateService) List(ctx context.Context) ([]*core.DebateState, error) {
	return s.store.List(ctx)
}

// Advance runs one round of the debate. Calls for the same debate are
// serialized; a failed round leaves the stored state untouched so the
// caller may retry.
func (s *DebateService) Advance(ctx context.Context, id string) (*core.RoundResult, *core.DebateState, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.scheduler.AdvanceRound(ctx, state)
	if err != nil {
		s.publish(events.NewRoundFailedEvent(id, string(state.CurrentSide), err, core.IsRetryable(err)))
		return nil, nil, err
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, nil, err
	}

	s.publishRound(state, result)
	return result, state, nil
}

// Finalize terminates the debate and produces the closing summary. Safe to
// call on an already-terminated debate: completed rounds are never re-run
// and an existing summary is returned as-is.
func (s *DebateService) Finalize(ctx context.Context, id string) (*core.DebateState, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	already := state.FinalSummary != ""
	summary, err := s.scheduler.Finalize(ctx, state)
	if err != nil {
		// Termination sticks even when the summary fails; persist it so
		// a retry picks up from the terminated state.
		if saveErr := s.store.Save(ctx, state); saveErr != nil {
			s.logger.Warn("persisting terminated debate failed",
				slog.String("debate_id", id),
				slog.String("error", saveErr.Error()),
			)
		}
		return nil, err
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}
	if !already {
		s.publish(events.NewDebateClosedEvent(id, state.RoundCount, summary))
	}
	return state, nil
}

// Delete removes a debate. Unknown IDs are not an error.
func (s *DebateService) Delete(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.dropLock(id)
	return nil
}

func (s *DebateService) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	switch event.EventType() {
	case events.TypeRoundFailed, events.TypeDebateClosed:
		s.bus.PublishPriority(event)
	default:
		s.bus.Publish(event)
	}
}

// publishRound emits the events corresponding to one round result.
func (s *DebateService) publishRound(state *core.DebateState, result *core.RoundResult) {
	for _, note := range result.Messages {
		s.publish(events.NewModeratorIntervenedEvent(state.ID, "moderator", note.Text, correctedSide(result)))
	}
	if result.Turn != nil {
		s.publish(events.NewTurnAppendedEvent(state.ID, string(result.Turn.Side), string(result.Turn.Kind), result.Turn.Text, state.RoundCount))
	}
	if result.Outcome == core.OutcomeClosed {
		s.publish(events.NewDebateClosedEvent(state.ID, state.RoundCount, result.Summary))
	}
}

func correctedSide(result *core.RoundResult) string {
	if result.Turn != nil && result.Outcome == core.OutcomeIntervention {
		return string(result.Turn.Side)
	}
	return ""
}
