// Package extract turns free text into (subject, relation, object) triples by
// prompting a language model and parsing its reply with a strict grammar.
// Model output is data, never code: anything the regexes do not match is
// dropped and logged, and a reply with no parseable triple yields an empty
// slice, not an error.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smallnest/graphqa/llm"
	"github.com/smallnest/graphqa/log"
)

// Triple is a single knowledge-graph fact.
type Triple struct {
	Subject  string
	Relation string
	Object   string
}

const extractionPrompt = `Extract factual relationships from the text below as triples.
Write one triple per line in exactly this format, including the quotes:
("subject", "relation", "object")

Use short lowercase noun phrases for subject and object and a short snake_case
verb phrase for relation. Output only the triples, nothing else.

Text:
%s`

// Matches one quoted tuple per line: ("s", "r", "o"). Fields may be empty.
var quotedTripleRe = regexp.MustCompile(`\(\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"([^"]*)"\s*\)`)

// Matches arrow notation: (subject)-[relation]->(object).
var arrowTripleRe = regexp.MustCompile(`\(([^()\[\]]+)\)\s*-\s*\[([^\[\]]*)\]\s*->\s*\(([^()\[\]]+)\)`)

// Extractor prompts a model for triples and parses the reply.
type Extractor struct {
	model  llm.Model
	logger log.Logger
}

// NewExtractor creates an Extractor. logger may be nil.
func NewExtractor(model llm.Model, logger log.Logger) *Extractor {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Extractor{model: model, logger: logger}
}

// Extract asks the model for triples in text. A model transport failure is
// returned as an error; a reply that parses to nothing is not.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Triple, error) {
	reply, err := e.model.Generate(ctx, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("triple extraction: %w", err)
	}

	triples := ParseTriples(reply)
	if len(triples) == 0 {
		e.logger.Warn("no triples parsed from model reply: %q", truncate(reply, 200))
	} else {
		e.logger.Debug("parsed %d triples", len(triples))
	}
	return triples, nil
}

// ParseTriples extracts triples from a model reply. It scans line by line,
// trying the quoted-tuple form first and the arrow form second. Triples with
// an empty subject or object are dropped; the placeholder relation "-" is
// normalized to the empty string.
func ParseTriples(reply string) []Triple {
	var triples []Triple

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := quotedTripleRe.FindStringSubmatch(line)
		if m == nil {
			m = arrowTripleRe.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}

		t := Triple{
			Subject:  strings.TrimSpace(m[1]),
			Relation: normalizeRelation(m[2]),
			Object:   strings.TrimSpace(m[3]),
		}
		if t.Subject == "" || t.Object == "" {
			continue
		}
		triples = append(triples, t)
	}

	return triples
}

// Lower lower-cases all fields of the triples in place and returns the slice.
// Ingestion stores triples lower-cased so keyword matching is case-free.
func Lower(triples []Triple) []Triple {
	for i := range triples {
		triples[i].Subject = strings.ToLower(triples[i].Subject)
		triples[i].Relation = strings.ToLower(triples[i].Relation)
		triples[i].Object = strings.ToLower(triples[i].Object)
	}
	return triples
}

func normalizeRelation(raw string) string {
	rel := strings.TrimSpace(raw)
	if rel == "-" {
		return ""
	}
	return rel
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
