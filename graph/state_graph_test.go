package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count int
	Trail []string
}

func TestStateGraph_SequentialInvoke(t *testing.T) {
	g := NewStateGraph[counterState]()

	g.AddNode("first", "adds one", func(ctx context.Context, s counterState) (counterState, error) {
		s.Count++
		s.Trail = append(s.Trail, "first")
		return s, nil
	})
	g.AddNode("second", "doubles", func(ctx context.Context, s counterState) (counterState, error) {
		s.Count *= 2
		s.Trail = append(s.Trail, "second")
		return s, nil
	})
	g.AddEdge("first", "second")
	g.AddEdge("second", END)
	g.SetEntryPoint("first")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), counterState{Count: 1})
	require.NoError(t, err)

	assert.Equal(t, 4, final.Count)
	assert.Equal(t, []string{"first", "second"}, final.Trail)
}

func TestStateGraph_CompileErrors(t *testing.T) {
	t.Run("missing entry point", func(t *testing.T) {
		g := NewStateGraph[counterState]()
		g.AddNode("only", "", func(ctx context.Context, s counterState) (counterState, error) {
			return s, nil
		})

		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrEntryPointNotSet)
	})

	t.Run("entry point names missing node", func(t *testing.T) {
		g := NewStateGraph[counterState]()
		g.SetEntryPoint("ghost")

		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("edge references missing node", func(t *testing.T) {
		g := NewStateGraph[counterState]()
		g.AddNode("start", "", func(ctx context.Context, s counterState) (counterState, error) {
			return s, nil
		})
		g.AddEdge("start", "ghost")
		g.SetEntryPoint("start")

		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestStateGraph_NoOutgoingEdge(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("dead-end", "", func(ctx context.Context, s counterState) (counterState, error) {
		return s, nil
	})
	g.SetEntryPoint("dead-end")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), counterState{})
	assert.ErrorIs(t, err, ErrNoOutgoingEdge)
}

func TestStateGraph_NodeErrorAbortsInvoke(t *testing.T) {
	boom := errors.New("boom")

	g := NewStateGraph[counterState]()
	g.AddNode("fail", "", func(ctx context.Context, s counterState) (counterState, error) {
		return s, boom
	})
	g.AddNode("never", "", func(ctx context.Context, s counterState) (counterState, error) {
		t.Fatal("node after a failure must not run")
		return s, nil
	})
	g.AddEdge("fail", "never")
	g.AddEdge("never", END)
	g.SetEntryPoint("fail")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), counterState{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fail")
}

func TestStateGraph_ContextCancellation(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("loop", "", func(ctx context.Context, s counterState) (counterState, error) {
		return s, nil
	})
	g.AddEdge("loop", "loop")
	g.SetEntryPoint("loop")

	runnable, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runnable.Invoke(ctx, counterState{})
	assert.ErrorIs(t, err, context.Canceled)
}
