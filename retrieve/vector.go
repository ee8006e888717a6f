package retrieve

import (
	"context"
	"fmt"
	"sort"

	"github.com/smallnest/graphqa/kg"
	"github.com/smallnest/graphqa/llm"
)

// Defaults for the vector strategy.
const (
	DefaultTopK           = 3
	DefaultScoreThreshold = 0.8
)

// QuestionSearcher is the slice of the store the vector strategy needs.
// *kg.Store satisfies it.
type QuestionSearcher interface {
	SimilarQuestionParagraphs(ctx context.Context, vec []float32, k int) ([]kg.ScoredParagraph, error)
}

// VectorStrategy embeds the question and looks for previously answered
// questions whose embeddings are close, returning the paragraphs that
// answered them. Hits below the score threshold are dropped; survivors are
// ordered best first.
type VectorStrategy struct {
	searcher  QuestionSearcher
	embedder  llm.Embedder
	topK      int
	threshold float64
}

var _ Strategy = (*VectorStrategy)(nil)

// NewVectorStrategy creates a vector strategy. topK <= 0 and threshold <= 0
// fall back to the defaults.
func NewVectorStrategy(searcher QuestionSearcher, embedder llm.Embedder, topK int, threshold float64) *VectorStrategy {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &VectorStrategy{
		searcher:  searcher,
		embedder:  embedder,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the question and returns the thresholded top-K paragraphs.
func (s *VectorStrategy) Retrieve(ctx context.Context, question string) (Context, error) {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Context{}, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.searcher.SimilarQuestionParagraphs(ctx, vec, s.topK)
	if err != nil {
		return Context{}, err
	}

	kept := make([]kg.ScoredParagraph, 0, len(hits))
	for _, h := range hits {
		if h.Score >= s.threshold {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	return Context{Paragraphs: kept}, nil
}
