// Package ingest turns files into graph content: a Document node per file,
// Paragraph nodes with embeddings, entity triples extracted from each
// paragraph, and LINKS edges between documents that mention each other.
// Ingestion is idempotent: ids derive from content, and the store merges.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/smallnest/graphqa/extract"
	"github.com/smallnest/graphqa/llm"
	"github.com/smallnest/graphqa/log"
)

// GraphWriter is the slice of the store the ingestor writes through.
// *kg.Store satisfies it.
type GraphWriter interface {
	UpsertDocument(ctx context.Context, id, title string, titleVec []float32) error
	UpsertParagraph(ctx context.Context, docID, paraID, text string, vec []float32) error
	LinkParagraph(ctx context.Context, paraID, docID string) error
	UpsertTriple(ctx context.Context, t extract.Triple) error
	UpsertQuestionAnswer(ctx context.Context, qID, text string, vec []float32, paragraphID string) error
}

// TripleSource extracts triples from text. *extract.Extractor satisfies it.
type TripleSource interface {
	Extract(ctx context.Context, text string) ([]extract.Triple, error)
}

// Result summarizes one ingested file.
type Result struct {
	DocID      string
	Title      string
	Paragraphs int
	Triples    int
}

// Ingestor loads files into the graph store.
type Ingestor struct {
	store     GraphWriter
	extractor TripleSource
	embedder  llm.Embedder
	logger    log.Logger
}

// NewIngestor creates an Ingestor. logger may be nil.
func NewIngestor(store GraphWriter, extractor TripleSource, embedder llm.Embedder, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Ingestor{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger,
	}
}

// DocumentID derives the stable document id for a title. Re-ingesting the
// same file always hits the same node.
func DocumentID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)).String()
}

// QuestionID derives the stable question id for a question text.
func QuestionID(question string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("question:"+question)).String()
}

type ingestedDoc struct {
	id         string
	title      string
	paragraphs []ingestedParagraph
}

type ingestedParagraph struct {
	id   string
	text string
}

// IngestFile loads one file into the graph. Embedding failures skip only the
// embedding node; extraction that parses to nothing yields no triples. Store
// write failures abort the file.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (Result, error) {
	doc, triples, err := in.ingestFile(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{
		DocID:      doc.id,
		Title:      doc.title,
		Paragraphs: len(doc.paragraphs),
		Triples:    triples,
	}, nil
}

func (in *Ingestor) ingestFile(ctx context.Context, path string) (ingestedDoc, int, error) {
	text, err := LoadFile(ctx, path)
	if err != nil {
		return ingestedDoc{}, 0, err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := ingestedDoc{id: DocumentID(title), title: title}

	titleVec := in.embed(ctx, title)
	if err := in.store.UpsertDocument(ctx, doc.id, title, titleVec); err != nil {
		return doc, 0, err
	}

	triples := 0
	for i, para := range SplitParagraphs(text) {
		paraID := fmt.Sprintf("%s_p%d", doc.id, i)
		vec := in.embed(ctx, para)
		if err := in.store.UpsertParagraph(ctx, doc.id, paraID, para, vec); err != nil {
			return doc, triples, err
		}
		doc.paragraphs = append(doc.paragraphs, ingestedParagraph{id: paraID, text: para})

		extracted, err := in.extractor.Extract(ctx, para)
		if err != nil {
			in.logger.Warn("triple extraction failed for %s: %v", paraID, err)
			continue
		}
		for _, t := range extract.Lower(extracted) {
			if err := in.store.UpsertTriple(ctx, t); err != nil {
				return doc, triples, err
			}
			triples++
		}
	}

	in.logger.Info("ingested %s: %d paragraphs, %d triples", title, len(doc.paragraphs), triples)
	return doc, triples, nil
}

// IngestDir ingests every supported file under dir, then adds LINKS edges
// from paragraphs to other ingested documents whose title they mention. A
// failed file is logged and skipped; the rest of the folder still loads.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) ([]Result, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && SupportedExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	var docs []ingestedDoc
	var results []Result
	for _, path := range paths {
		doc, triples, err := in.ingestFile(ctx, path)
		if err != nil {
			in.logger.Error("skipping %s: %v", path, err)
			continue
		}
		docs = append(docs, doc)
		results = append(results, Result{
			DocID:      doc.id,
			Title:      doc.title,
			Paragraphs: len(doc.paragraphs),
			Triples:    triples,
		})
	}

	in.linkDocuments(ctx, docs)
	return results, nil
}

// linkDocuments adds a LINKS edge whenever a paragraph mentions another
// document's title.
func (in *Ingestor) linkDocuments(ctx context.Context, docs []ingestedDoc) {
	for _, doc := range docs {
		for _, para := range doc.paragraphs {
			lower := strings.ToLower(para.text)
			for _, other := range docs {
				if other.id == doc.id {
					continue
				}
				if strings.Contains(lower, strings.ToLower(other.title)) {
					if err := in.store.LinkParagraph(ctx, para.id, other.id); err != nil {
						in.logger.Warn("link %s -> %s: %v", para.id, other.title, err)
					}
				}
			}
		}
	}
}

// IngestQuestion stores an answered question so future similar questions find
// the paragraph through the vector index.
func (in *Ingestor) IngestQuestion(ctx context.Context, question, paragraphID string) error {
	vec := in.embed(ctx, question)
	if vec == nil {
		return fmt.Errorf("ingest question: embedding failed")
	}
	return in.store.UpsertQuestionAnswer(ctx, QuestionID(question), question, vec, paragraphID)
}

// embed returns the embedding for text, or nil after logging a failure.
func (in *Ingestor) embed(ctx context.Context, text string) []float32 {
	vec, err := in.embedder.Embed(ctx, text)
	if err != nil {
		in.logger.Warn("embedding failed for %q: %v", truncate(text, 60), err)
		return nil
	}
	return vec
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
