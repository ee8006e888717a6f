// Package retrieve builds the context a question is answered from. Two
// strategies exist: vector similarity over stored question embeddings, and
// keyword pattern matching over the extracted entity triples. Both produce a
// Context; an empty Context is a valid outcome, not an error.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/graphqa/kg"
)

// Context is the retrieved material behind an answer. Exactly one of
// Paragraphs or Triples is populated, depending on the strategy.
type Context struct {
	Paragraphs []kg.ScoredParagraph
	Triples    []kg.TripleRow
}

// Empty reports whether retrieval produced nothing usable.
func (c Context) Empty() bool {
	return len(c.Paragraphs) == 0 && len(c.Triples) == 0
}

// Text renders the context for prompt interpolation, one item per line.
func (c Context) Text() string {
	var b strings.Builder
	for _, p := range c.Paragraphs {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	for _, t := range c.Triples {
		rel := t.Relation
		if rel == "" {
			rel = "related_to"
		}
		fmt.Fprintf(&b, "%s %s %s\n", t.Subject, rel, t.Object)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Strategy retrieves context for a question.
type Strategy interface {
	Retrieve(ctx context.Context, question string) (Context, error)
}
