package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/graphqa/kg"
	"github.com/smallnest/graphqa/llm"
	"github.com/smallnest/graphqa/log"
)

// TripleMatcher is the slice of the store the keyword strategy needs.
// *kg.Store satisfies it.
type TripleMatcher interface {
	MatchTriples(ctx context.Context, keywords []string) ([]kg.TripleRow, error)
}

// KeywordStrategy derives keywords from the question and matches them against
// stored entity names. Optionally a model distills the question's subject into
// one extra keyword first.
type KeywordStrategy struct {
	matcher      TripleMatcher
	subjectModel llm.Model
	logger       log.Logger
}

var _ Strategy = (*KeywordStrategy)(nil)

// NewKeywordStrategy creates a keyword strategy. logger may be nil.
func NewKeywordStrategy(matcher TripleMatcher, logger log.Logger) *KeywordStrategy {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &KeywordStrategy{matcher: matcher, logger: logger}
}

// WithSubjectModel enables LLM-assisted subject extraction and returns the
// strategy for chaining.
func (s *KeywordStrategy) WithSubjectModel(model llm.Model) *KeywordStrategy {
	s.subjectModel = model
	return s
}

const subjectPrompt = `What single entity is the following question about?
Answer with just that entity, lowercase, no punctuation.

Question: %s`

// Retrieve matches the question's keywords against stored triples.
func (s *KeywordStrategy) Retrieve(ctx context.Context, question string) (Context, error) {
	keywords := Keywords(question)

	if s.subjectModel != nil {
		subject, err := s.subjectModel.Generate(ctx, fmt.Sprintf(subjectPrompt, question))
		if err != nil {
			// keyword derivation still works without the model
			s.logger.Warn("subject extraction failed: %v", err)
		} else if subject = strings.ToLower(strings.TrimSpace(subject)); subject != "" && !contains(keywords, subject) {
			keywords = append(keywords, subject)
		}
	}

	if len(keywords) == 0 {
		return Context{}, nil
	}

	rows, err := s.matcher.MatchTriples(ctx, keywords)
	if err != nil {
		return Context{}, err
	}
	return Context{Triples: rows}, nil
}

// Keywords tokenizes a question into lookup keywords: lower-cased runs of
// letters and digits, longer than three characters, minus stop words.
func Keywords(question string) []string {
	var keywords []string
	for _, word := range splitWords(question) {
		word = strings.ToLower(word)
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		if !contains(keywords, word) {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphaNumeric(r)
	})
}

func isAlphaNumeric(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true, "what": true, "where": true, "when": true, "why": true,
	"how": true, "who": true, "which": true, "whose": true, "whom": true,
	"about": true, "tell": true, "please": true,
}
