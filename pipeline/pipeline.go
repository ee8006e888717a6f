// Package pipeline wires retrieval and answer synthesis into the workflow
// graph. There is one topology, retrieve -> generate -> END; the vector RAG
// and graph-QA variants differ only in the retrieval strategy plugged in.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/graphqa/graph"
	"github.com/smallnest/graphqa/llm"
	"github.com/smallnest/graphqa/log"
	"github.com/smallnest/graphqa/retrieve"
)

// Fallback is the answer when retrieval produces nothing usable. The model is
// not called in that case.
const Fallback = "No relevant information found."

// Turn is one exchange of the conversation, interpolated into the prompt so
// follow-up questions resolve against earlier answers.
type Turn struct {
	Question string
	Answer   string
}

// QAState is the state threaded through the workflow graph.
type QAState struct {
	Question string
	History  []Turn
	Context  retrieve.Context
	Answer   string
}

const answerPrompt = `You are a helpful assistant. Answer the question using only the
context below and the conversation so far. If the context does not contain
the answer, say so briefly.

Conversation so far:
%s

Context:
%s

Question: %s

Answer:`

// Synthesizer renders the answer prompt and calls the model once.
type Synthesizer struct {
	model  llm.Model
	logger log.Logger
}

// NewSynthesizer creates a Synthesizer. logger may be nil.
func NewSynthesizer(model llm.Model, logger log.Logger) *Synthesizer {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Synthesizer{model: model, logger: logger}
}

// Synthesize produces an answer from the retrieved context.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextText string, history []Turn) (string, error) {
	answer, err := s.model.Generate(ctx, fmt.Sprintf(answerPrompt, renderHistory(history), contextText, question))
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func renderHistory(history []Turn) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.Question, t.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Pipeline is a compiled question-answering workflow.
type Pipeline struct {
	runnable *graph.StateRunnable[QAState]
}

// New builds and compiles the workflow around the given retrieval strategy.
func New(strategy retrieve.Strategy, synth *Synthesizer) (*Pipeline, error) {
	g := graph.NewStateGraph[QAState]()

	g.AddNode("retrieve", "retrieve context for the question",
		func(ctx context.Context, state QAState) (QAState, error) {
			retrieved, err := strategy.Retrieve(ctx, state.Question)
			if err != nil {
				return state, err
			}
			state.Context = retrieved
			return state, nil
		})

	g.AddNode("generate", "synthesize the answer from the retrieved context",
		func(ctx context.Context, state QAState) (QAState, error) {
			if state.Context.Empty() {
				state.Answer = Fallback
				return state, nil
			}
			answer, err := synth.Synthesize(ctx, state.Question, state.Context.Text(), state.History)
			if err != nil {
				return state, err
			}
			state.Answer = answer
			return state, nil
		})

	g.AddEdge("retrieve", "generate")
	g.AddEdge("generate", graph.END)
	g.SetEntryPoint("retrieve")

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile pipeline: %w", err)
	}
	return &Pipeline{runnable: runnable}, nil
}

// Answer runs the workflow for one question and returns the final state, so
// callers can show both the answer and the context behind it.
func (p *Pipeline) Answer(ctx context.Context, question string, history []Turn) (QAState, error) {
	return p.runnable.Invoke(ctx, QAState{Question: question, History: history})
}
