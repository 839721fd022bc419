package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/testutil"
)

func TestCheckTopic_Safe(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").Enqueue("SAFE")
	g := New(model, nil)

	check, err := g.CheckTopic(context.Background(), "Should homework be abolished?")

	require.NoError(t, err)
	assert.True(t, check.Accepted)

	// The topic must reach the filter model
	reqs := model.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Should homework be abolished?")
	assert.NotEmpty(t, reqs[0].System)
}

func TestCheckTopic_Unsafe(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").
		Enqueue("UNSAFE: promotes harassment of a named person")
	g := New(model, nil)

	check, err := g.CheckTopic(context.Background(), "bad topic")

	require.NoError(t, err)
	assert.False(t, check.Accepted)
	assert.Contains(t, check.Reason, "harassment")
}

func TestCheckTopic_PaddedVerdict(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").
		Enqueue("I think this topic is SAFE for a civil debate.")
	g := New(model, nil)

	check, err := g.CheckTopic(context.Background(), "topic")

	require.NoError(t, err)
	assert.True(t, check.Accepted)
}

func TestCheckTopic_UnsafeContainsSafe(t *testing.T) {
	// "UNSAFE" contains "SAFE"; the longer keyword must win.
	model := testutil.NewMockLanguageModel("filter").Enqueue("This is UNSAFE.")
	g := New(model, nil)

	check, err := g.CheckTopic(context.Background(), "topic")

	require.NoError(t, err)
	assert.False(t, check.Accepted)
}

func TestCheckTopic_OffScriptRejects(t *testing.T) {
	// Unparseable filter output counts as a rejection, not an acceptance.
	model := testutil.NewMockLanguageModel("filter").
		Enqueue("As an AI I cannot determine that.")
	g := New(model, nil)

	check, err := g.CheckTopic(context.Background(), "topic")

	require.NoError(t, err)
	assert.False(t, check.Accepted)
	assert.NotEmpty(t, check.Reason)
}

func TestCheckTopic_ModelError(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").
		WithError(core.ErrUnavailable("runtime down"))
	g := New(model, nil)

	_, err := g.CheckTopic(context.Background(), "topic")

	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatNetwork))
}

func TestCheckArgument_OK(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").Enqueue("OK")
	g := New(model, nil)

	check, err := g.CheckArgument(context.Background(), "a civil argument")

	require.NoError(t, err)
	assert.True(t, check.OK)
}

func TestCheckArgument_Flagged(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").
		Enqueue("FLAG - contains a slur")
	g := New(model, nil)

	check, err := g.CheckArgument(context.Background(), "bad argument")

	require.NoError(t, err)
	assert.False(t, check.OK)
	assert.Contains(t, check.Reason, "slur")
}

func TestCheckArgument_OffScriptPasses(t *testing.T) {
	// Argument screening is best-effort: confusion counts as clean.
	model := testutil.NewMockLanguageModel("filter").
		Enqueue("Hmm, hard to say.")
	g := New(model, nil)

	check, err := g.CheckArgument(context.Background(), "argument")

	require.NoError(t, err)
	assert.True(t, check.OK)
}

func TestCheckArgument_ModelError(t *testing.T) {
	model := testutil.NewMockLanguageModel("filter").
		WithError(core.ErrTimeout("slow model"))
	g := New(model, nil)

	_, err := g.CheckArgument(context.Background(), "argument")

	// The error propagates; the moderator policy decides to fail open.
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout))
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantVerdict string
		wantReason  string
	}{
		{"bare positive", "SAFE", "SAFE", ""},
		{"bare negative", "UNSAFE", "UNSAFE", ""},
		{"lowercase", "unsafe: too violent", "UNSAFE", "too violent"},
		{"reason on next line", "UNSAFE\nit promotes harm\nmore text", "UNSAFE", "it promotes harm"},
		{"no verdict", "I refuse to answer", "", ""},
		{"both present", "SAFE... actually UNSAFE", "UNSAFE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason := parseVerdict(tt.raw, "SAFE", "UNSAFE")
			assert.Equal(t, tt.wantVerdict, verdict)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
