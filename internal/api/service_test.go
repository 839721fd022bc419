package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/events"
	"github.com/agora-ai/agora/internal/testutil"
)

func collectEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestDebateService_PublishesLifecycleEvents(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()

	debater := testutil.NewMockLanguageModel("debater").Enqueue("an argument for remote work")
	summarizer := core.NewSummarizer(testutil.NewMockLanguageModel("summarizer").Enqueue("the closing summary"))
	scheduler := core.NewScheduler(stancePrompter(), debater, summarizer)
	service := NewDebateService(scheduler, testutil.NewMockStore(), bus, nil)

	startedCh := bus.Subscribe(events.TypeDebateStarted)
	turnCh := bus.Subscribe(events.TypeTurnAppended)
	closedCh := bus.SubscribePriority()

	ctx := context.Background()
	state, err := service.Create(ctx, "Should remote work be the default?")
	require.NoError(t, err)

	started := collectEvent(t, startedCh, time.Second)
	assert.Equal(t, state.ID, started.DebateID())

	_, _, err = service.Advance(ctx, state.ID)
	require.NoError(t, err)

	turn := collectEvent(t, turnCh, time.Second).(events.TurnAppendedEvent)
	assert.Equal(t, "for", turn.Side)
	assert.Equal(t, 1, turn.Round)

	_, err = service.Finalize(ctx, state.ID)
	require.NoError(t, err)

	closed := collectEvent(t, closedCh, time.Second).(events.DebateClosedEvent)
	assert.Equal(t, state.ID, closed.DebateID())
	assert.Equal(t, "the closing summary", closed.Summary)
}

func TestDebateService_FinalizeTwicePublishesOnce(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()

	summarizer := core.NewSummarizer(testutil.NewMockLanguageModel("summarizer").Enqueue("summary"))
	scheduler := core.NewScheduler(stancePrompter(), testutil.NewMockLanguageModel("debater"), summarizer)
	store := testutil.NewMockStore()
	service := NewDebateService(scheduler, store, bus, nil)

	debate := testutil.NewTestDebate(testutil.WithHistory(2))
	require.NoError(t, store.Save(context.Background(), debate))

	closedCh := bus.Subscribe(events.TypeDebateClosed)

	ctx := context.Background()
	_, err := service.Finalize(ctx, debate.ID)
	require.NoError(t, err)
	_, err = service.Finalize(ctx, debate.ID)
	require.NoError(t, err)

	collectEvent(t, closedCh, time.Second)
	select {
	case event := <-closedCh:
		t.Fatalf("unexpected second closed event: %v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebateService_RoundFailurePublishesPriorityEvent(t *testing.T) {
	bus := events.New(16)
	defer bus.Close()

	debater := testutil.NewMockLanguageModel("debater").EnqueueError(core.ErrTimeout("model call timed out"))
	summarizer := core.NewSummarizer(testutil.NewMockLanguageModel("summarizer"))
	scheduler := core.NewScheduler(stancePrompter(), debater, summarizer)
	store := testutil.NewMockStore()
	service := NewDebateService(scheduler, store, bus, nil)

	debate := testutil.NewTestDebate()
	require.NoError(t, store.Save(context.Background(), debate))

	failedCh := bus.SubscribePriority()

	_, _, err := service.Advance(context.Background(), debate.ID)
	require.Error(t, err)

	failed := collectEvent(t, failedCh, time.Second).(events.RoundFailedEvent)
	assert.Equal(t, debate.ID, failed.DebateID())
	assert.True(t, failed.Retryable)
}
