package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.reply, m.err
}

func TestParseTriples_QuotedTuples(t *testing.T) {
	reply := `("paris", "is_capital_of", "france")
("france", "is_in", "europe")`

	triples := ParseTriples(reply)
	require.Len(t, triples, 2)
	assert.Equal(t, Triple{Subject: "paris", Relation: "is_capital_of", Object: "france"}, triples[0])
	assert.Equal(t, Triple{Subject: "france", Relation: "is_in", Object: "europe"}, triples[1])
}

func TestParseTriples_ArrowNotation(t *testing.T) {
	reply := `(paris)-[is_capital_of]->(france)
(marie curie) - [won] -> (nobel prize)`

	triples := ParseTriples(reply)
	require.Len(t, triples, 2)
	assert.Equal(t, Triple{Subject: "paris", Relation: "is_capital_of", Object: "france"}, triples[0])
	assert.Equal(t, Triple{Subject: "marie curie", Relation: "won", Object: "nobel prize"}, triples[1])
}

func TestParseTriples_MixedAndNoise(t *testing.T) {
	reply := `Here are the triples I found:
("sun", "is_a", "star")
this line is prose and parses to nothing
(earth)-[orbits]->(sun)
Done!`

	triples := ParseTriples(reply)
	require.Len(t, triples, 2)
	assert.Equal(t, "sun", triples[0].Subject)
	assert.Equal(t, "earth", triples[1].Subject)
}

func TestParseTriples_EdgeCases(t *testing.T) {
	t.Run("dash relation becomes empty", func(t *testing.T) {
		triples := ParseTriples(`("a", "-", "b")`)
		require.Len(t, triples, 1)
		assert.Equal(t, "", triples[0].Relation)
	})

	t.Run("empty subject or object dropped", func(t *testing.T) {
		triples := ParseTriples(`("", "rel", "b")
("a", "rel", "")`)
		assert.Empty(t, triples)
	})

	t.Run("unparseable reply yields empty slice", func(t *testing.T) {
		triples := ParseTriples("The capital of France is Paris.")
		assert.Empty(t, triples)
	})

	t.Run("empty reply", func(t *testing.T) {
		assert.Empty(t, ParseTriples(""))
	})
}

func TestLower(t *testing.T) {
	triples := Lower([]Triple{{Subject: "Paris", Relation: "Is_Capital_Of", Object: "FRANCE"}})
	require.Len(t, triples, 1)
	assert.Equal(t, Triple{Subject: "paris", Relation: "is_capital_of", Object: "france"}, triples[0])
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("parses model reply", func(t *testing.T) {
		model := &fakeModel{reply: `("go", "is_a", "language")`}
		ex := NewExtractor(model, nil)

		triples, err := ex.Extract(context.Background(), "Go is a language.")
		require.NoError(t, err)
		require.Len(t, triples, 1)
		assert.Equal(t, 1, model.calls)
	})

	t.Run("model error is returned", func(t *testing.T) {
		model := &fakeModel{err: errors.New("connection refused")}
		ex := NewExtractor(model, nil)

		_, err := ex.Extract(context.Background(), "text")
		assert.Error(t, err)
	})

	t.Run("garbage reply is not an error", func(t *testing.T) {
		model := &fakeModel{reply: "I could not find any relationships."}
		ex := NewExtractor(model, nil)

		triples, err := ex.Extract(context.Background(), "text")
		require.NoError(t, err)
		assert.Empty(t, triples)
	})
}
