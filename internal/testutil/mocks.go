package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agora-ai/agora/internal/core"
)

// MockCall records a call to a mock.
type MockCall struct {
	Method    string
	Args      interface{}
	Timestamp time.Time
}

// outcome is one queued generation result.
type outcome struct {
	text string
	err  error
}

// MockLanguageModel implements core.LanguageModel for testing.
// Responses are served from a queue; when the queue runs dry the mock
// falls back to a canned response or a custom generate function.
type MockLanguageModel struct {
	name         string
	queue        []outcome
	generateFunc func(context.Context, core.GenerateRequest) (string, error)
	pingFunc     func(context.Context) error
	requests     []core.GenerateRequest
	calls        []MockCall
	mu           sync.Mutex
}

// NewMockLanguageModel creates a new mock model.
func NewMockLanguageModel(name string) *MockLanguageModel {
	return &MockLanguageModel{name: name}
}

// Name returns the mock model name.
func (m *MockLanguageModel) Name() string {
	return m.name
}

// Ping mocks the availability check.
func (m *MockLanguageModel) Ping(ctx context.Context) error {
	m.recordCall("Ping", nil)
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// Generate serves the next queued outcome.
func (m *MockLanguageModel) Generate(ctx context.Context, req core.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.calls = append(m.calls, MockCall{Method: "Generate", Args: req, Timestamp: time.Now()})

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return next.text, next.err
	}
	fn := m.generateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	preview := req.Prompt
	if len(preview) > 50 {
		preview = preview[:50]
	}
	return fmt.Sprintf("Mock response for: %s", preview), nil
}

// Enqueue appends successful responses to the queue.
func (m *MockLanguageModel) Enqueue(responses ...string) *MockLanguageModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		m.queue = append(m.queue, outcome{text: r})
	}
	return m
}

// EnqueueError appends a failing outcome to the queue.
func (m *MockLanguageModel) EnqueueError(err error) *MockLanguageModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, outcome{err: err})
	return m
}

// WithGenerateFunc sets the fallback generate function.
func (m *MockLanguageModel) WithGenerateFunc(fn func(context.Context, core.GenerateRequest) (string, error)) *MockLanguageModel {
	m.generateFunc = fn
	return m
}

// WithError makes every unqueued call fail with err.
func (m *MockLanguageModel) WithError(err error) *MockLanguageModel {
	m.generateFunc = func(context.Context, core.GenerateRequest) (string, error) {
		return "", err
	}
	return m
}

// WithPingFunc sets a custom ping function.
func (m *MockLanguageModel) WithPingFunc(fn func(context.Context) error) *MockLanguageModel {
	m.pingFunc = fn
	return m
}

// Requests returns the recorded generate requests.
func (m *MockLanguageModel) Requests() []core.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.GenerateRequest{}, m.requests...)
}

// CallCount returns the number of calls to a method.
func (m *MockLanguageModel) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears the queue and call history.
func (m *MockLanguageModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.requests = nil
	m.calls = nil
}

func (m *MockLanguageModel) recordCall(method string, args interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// MockContentGuard implements core.ContentGuard for testing.
type MockContentGuard struct {
	topicCheck    core.TopicCheck
	topicErr      error
	argumentCheck core.ArgumentCheck
	argumentErr   error
	topicFunc     func(context.Context, string) (core.TopicCheck, error)
	argumentFunc  func(context.Context, string) (core.ArgumentCheck, error)
	topics        []string
	arguments     []string
	mu            sync.Mutex
}

// NewMockContentGuard creates a guard that accepts everything.
func NewMockContentGuard() *MockContentGuard {
	return &MockContentGuard{
		topicCheck:    core.TopicCheck{Accepted: true},
		argumentCheck: core.ArgumentCheck{OK: true},
	}
}

// CheckTopic mocks topic screening.
func (g *MockContentGuard) CheckTopic(ctx context.Context, topic string) (core.TopicCheck, error) {
	g.mu.Lock()
	g.topics = append(g.topics, topic)
	g.mu.Unlock()
	if g.topicFunc != nil {
		return g.topicFunc(ctx, topic)
	}
	return g.topicCheck, g.topicErr
}

// CheckArgument mocks argument screening.
func (g *MockContentGuard) CheckArgument(ctx context.Context, text string) (core.ArgumentCheck, error) {
	g.mu.Lock()
	g.arguments = append(g.arguments, text)
	g.mu.Unlock()
	if g.argumentFunc != nil {
		return g.argumentFunc(ctx, text)
	}
	return g.argumentCheck, g.argumentErr
}

// RejectTopics makes topic checks fail with the given reason.
func (g *MockContentGuard) RejectTopics(reason string) *MockContentGuard {
	g.topicCheck = core.TopicCheck{Accepted: false, Reason: reason}
	return g
}

// FlagArguments makes argument checks flag with the given reason.
func (g *MockContentGuard) FlagArguments(reason string) *MockContentGuard {
	g.argumentCheck = core.ArgumentCheck{OK: false, Reason: reason}
	return g
}

// WithTopicError makes topic checks fail with err.
func (g *MockContentGuard) WithTopicError(err error) *MockContentGuard {
	g.topicErr = err
	return g
}

// WithArgumentError makes argument checks fail with err.
func (g *MockContentGuard) WithArgumentError(err error) *MockContentGuard {
	g.argumentErr = err
	return g
}

// WithTopicFunc sets a custom topic check function.
func (g *MockContentGuard) WithTopicFunc(fn func(context.Context, string) (core.TopicCheck, error)) *MockContentGuard {
	g.topicFunc = fn
	return g
}

// CheckedTopics returns the topics passed to CheckTopic.
func (g *MockContentGuard) CheckedTopics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.topics...)
}

// CheckedArguments returns the texts passed to CheckArgument.
func (g *MockContentGuard) CheckedArguments() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.arguments...)
}

// MockModeratorPolicy implements core.ModeratorPolicy for testing.
type MockModeratorPolicy struct {
	decisions []core.Decision
	err       error
	calls     int
	mu        sync.Mutex
}

// NewMockModeratorPolicy creates a policy that always continues.
func NewMockModeratorPolicy() *MockModeratorPolicy {
	return &MockModeratorPolicy{}
}

// Evaluate serves queued decisions, then continues forever.
func (p *MockModeratorPolicy) Evaluate(ctx context.Context, state *core.DebateState) (core.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return core.Decision{}, p.err
	}
	if len(p.decisions) > 0 {
		d := p.decisions[0]
		p.decisions = p.decisions[1:]
		return d, nil
	}
	return core.Decision{Kind: core.DecisionContinue}, nil
}

// EnqueueDecision queues decisions to serve in order.
func (p *MockModeratorPolicy) EnqueueDecision(ds ...core.Decision) *MockModeratorPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, ds...)
	return p
}

// WithError makes every evaluation fail with err.
func (p *MockModeratorPolicy) WithError(err error) *MockModeratorPolicy {
	p.err = err
	return p
}

// Calls returns the number of evaluations.
func (p *MockModeratorPolicy) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// MockStore implements core.DebateStore in memory.
type MockStore struct {
	debates map[string]*core.DebateState
	saveErr error
	loadErr error
	saves   int
	mu      sync.Mutex
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{debates: make(map[string]*core.DebateState)}
}

// Save stores a deep copy of the state.
func (s *MockStore) Save(ctx context.Context, state *core.DebateState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.debates[state.ID] = state.Clone()
	return nil
}

// Load returns a deep copy of the stored state.
func (s *MockStore) Load(ctx context.Context, id string) (*core.DebateState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	state, ok := s.debates[id]
	if !ok {
		return nil, core.ErrNotFound("debate", id)
	}
	return state.Clone(), nil
}

// List returns all debates, most recently updated first.
func (s *MockStore) List(ctx context.Context) ([]*core.DebateState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.DebateState, 0, len(s.debates))
	for _, d := range s.debates {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a debate; unknown IDs are not an error.
func (s *MockStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.debates, id)
	return nil
}

// WithSaveError makes saves fail with err.
func (s *MockStore) WithSaveError(err error) *MockStore {
	s.saveErr = err
	return s
}

// Saves returns the number of save calls.
func (s *MockStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Ensure interfaces are implemented
var _ core.LanguageModel = (*MockLanguageModel)(nil)
var _ core.ContentGuard = (*MockContentGuard)(nil)
var _ core.ModeratorPolicy = (*MockModeratorPolicy)(nil)
var _ core.DebateStore = (*MockStore)(nil)
