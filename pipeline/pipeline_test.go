package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphqa/kg"
	"github.com/smallnest/graphqa/retrieve"
)

type fakeModel struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeStrategy struct {
	result retrieve.Context
	err    error
}

func (f *fakeStrategy) Retrieve(ctx context.Context, question string) (retrieve.Context, error) {
	return f.result, f.err
}

func TestPipeline_AnswersFromContext(t *testing.T) {
	model := &fakeModel{reply: "Paris is the capital of France."}
	strategy := &fakeStrategy{result: retrieve.Context{Paragraphs: []kg.ScoredParagraph{
		{ID: "p1", Text: "Paris is the capital of France.", Score: 0.95},
	}}}

	p, err := New(strategy, NewSynthesizer(model, nil))
	require.NoError(t, err)

	state, err := p.Answer(context.Background(), "What is the capital of France?", nil)
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", state.Answer)
	require.Len(t, state.Context.Paragraphs, 1)
	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.prompts[0], "What is the capital of France?")
	assert.Contains(t, model.prompts[0], "Paris is the capital of France.")
}

func TestPipeline_EmptyContextShortCircuits(t *testing.T) {
	model := &fakeModel{reply: "should never be used"}
	p, err := New(&fakeStrategy{}, NewSynthesizer(model, nil))
	require.NoError(t, err)

	state, err := p.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)

	assert.Equal(t, Fallback, state.Answer)
	assert.Zero(t, model.calls, "model must not be called on empty context")
}

func TestPipeline_HistoryInPrompt(t *testing.T) {
	model := &fakeModel{reply: "He was born in 1879."}
	strategy := &fakeStrategy{result: retrieve.Context{Triples: []kg.TripleRow{
		{Subject: "einstein", Relation: "born_in", Object: "1879"},
	}}}

	p, err := New(strategy, NewSynthesizer(model, nil))
	require.NoError(t, err)

	history := []Turn{{Question: "Who was Einstein?", Answer: "A physicist."}}
	_, err = p.Answer(context.Background(), "When was he born?", history)
	require.NoError(t, err)

	prompt := model.prompts[0]
	assert.Contains(t, prompt, "User: Who was Einstein?")
	assert.Contains(t, prompt, "Assistant: A physicist.")
	assert.Contains(t, prompt, "einstein born_in 1879")
}

func TestPipeline_Errors(t *testing.T) {
	t.Run("retrieval failure aborts the run", func(t *testing.T) {
		model := &fakeModel{}
		p, err := New(&fakeStrategy{err: errors.New("store down")}, NewSynthesizer(model, nil))
		require.NoError(t, err)

		_, err = p.Answer(context.Background(), "q", nil)
		assert.ErrorContains(t, err, "store down")
		assert.Zero(t, model.calls)
	})

	t.Run("model failure propagates", func(t *testing.T) {
		model := &fakeModel{err: errors.New("rate limited")}
		strategy := &fakeStrategy{result: retrieve.Context{Triples: []kg.TripleRow{{Subject: "a", Object: "b"}}}}
		p, err := New(strategy, NewSynthesizer(model, nil))
		require.NoError(t, err)

		_, err = p.Answer(context.Background(), "q", nil)
		assert.ErrorContains(t, err, "rate limited")
	})
}

func TestSynthesizer_TrimsReply(t *testing.T) {
	model := &fakeModel{reply: "  the answer \n"}
	s := NewSynthesizer(model, nil)

	answer, err := s.Synthesize(context.Background(), "q", "ctx", nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestRenderHistory_Empty(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	strategy := &fakeStrategy{result: retrieve.Context{Triples: []kg.TripleRow{{Subject: "a", Object: "b"}}}}
	p, err := New(strategy, NewSynthesizer(model, nil))
	require.NoError(t, err)

	_, err = p.Answer(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(model.prompts[0], "(none)"))
}
