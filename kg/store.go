// Package kg persists the knowledge graph in FalkorDB: documents, their
// paragraphs, extracted entity triples, answered questions, and the embedding
// nodes hanging off all of them. Every write is a MERGE keyed on a stable id
// with ON CREATE SET, so re-ingesting the same material is a no-op.
package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/graphqa/extract"
	"github.com/smallnest/graphqa/log"
)

// Node labels and relationship types used across the graph.
const (
	LabelDocument           = "Document"
	LabelParagraph          = "Paragraph"
	LabelQuestion           = "Question"
	LabelEntity             = "Entity"
	LabelTitleEmbedding     = "TitleEmbedding"
	LabelParagraphEmbedding = "ParagraphEmbedding"
	LabelQuestionEmbedding  = "QuestionEmbedding"

	RelHasParagraph = "HAS_PARAGRAPH"
	RelHasEmbedding = "HAS_EMBEDDING"
	RelAnsweredBy   = "ANSWERED_BY"
	RelLinks        = "LINKS"
	RelRelation     = "RELATION"
)

// questionVectorIndex is the vector index behind similarity search.
const questionVectorIndexLabel = LabelQuestionEmbedding

// ScoredParagraph is a retrieval hit: a paragraph reached through a similar
// stored question, with the similarity score in [0,1].
type ScoredParagraph struct {
	ID    string
	Text  string
	Score float64
}

// TripleRow is one (subject, relation, object) row from a pattern match.
type TripleRow struct {
	Subject  string
	Relation string
	Object   string
}

// Store is the graph store. All methods issue single Cypher statements; there
// are no cross-statement transactions, and a failed statement leaves prior
// statements applied.
type Store struct {
	graph     *Graph
	logger    log.Logger
	dimension int
}

// NewStore connects to FalkorDB at addr and pings it. A failed ping is
// returned as an error; the caller treats it as fatal.
func NewStore(addr, graphName string, dimension int, logger log.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to falkordb at %s: %w", addr, err)
	}

	return NewStoreWithConn(client, graphName, dimension, logger), nil
}

// NewStoreWithConn builds a Store over an existing connection. Used by tests
// and by callers that manage the client themselves.
func NewStoreWithConn(conn Conn, graphName string, dimension int, logger log.Logger) *Store {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Store{
		graph:     &Graph{Name: graphName, Conn: conn},
		logger:    logger,
		dimension: dimension,
	}
}

// Dimension returns the embedding dimension the store was opened with.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.graph.Conn.Close()
}

// EnsureSchema creates the exact-match indexes, uniqueness constraints and
// the cosine vector index over question embeddings. Safe to call on every
// startup; "already exists" replies are swallowed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	indexed := []struct{ label, attr string }{
		{LabelDocument, "id"},
		{LabelParagraph, "id"},
		{LabelQuestion, "id"},
		{LabelEntity, "name"},
	}

	for _, idx := range indexed {
		q := fmt.Sprintf("CREATE INDEX FOR (n:%s) ON (n.%s)", idx.label, idx.attr)
		if _, err := s.graph.Query(ctx, q); err != nil && !schemaExists(err) {
			return fmt.Errorf("create index on %s.%s: %w", idx.label, idx.attr, err)
		}
	}

	for _, idx := range indexed[:3] {
		err := s.graph.Conn.Do(ctx, "GRAPH.CONSTRAINT", "CREATE", s.graph.Name,
			"UNIQUE", "NODE", idx.label, "PROPERTIES", "1", idx.attr).Err()
		if err != nil && !schemaExists(err) {
			return fmt.Errorf("create unique constraint on %s.%s: %w", idx.label, idx.attr, err)
		}
	}

	vectorIdx := fmt.Sprintf(
		"CREATE VECTOR INDEX FOR (e:%s) ON (e.vector) OPTIONS {dimension: %d, similarityFunction: 'cosine'}",
		questionVectorIndexLabel, s.dimension)
	if _, err := s.graph.Query(ctx, vectorIdx); err != nil && !schemaExists(err) {
		return fmt.Errorf("create vector index: %w", err)
	}

	s.logger.Debug("schema ensured on graph %s (dimension %d)", s.graph.Name, s.dimension)
	return nil
}

func schemaExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already") || strings.Contains(msg, "pending")
}

// UpsertDocument merges a Document node by id. titleVec may be nil when the
// title embedding failed upstream; the document is still created, just
// without a HAS_EMBEDDING edge.
func (s *Store) UpsertDocument(ctx context.Context, id, title string, titleVec []float32) error {
	q := fmt.Sprintf(
		"MERGE (d:%s {id: '%s'}) ON CREATE SET d.title = '%s'",
		LabelDocument, escapeString(id), escapeString(title))

	if titleVec != nil {
		q += fmt.Sprintf(
			" MERGE (e:%s {id: '%s'}) ON CREATE SET e.vector = %s MERGE (d)-[:%s]->(e)",
			LabelTitleEmbedding, escapeString(id), vectorLiteral(titleVec), RelHasEmbedding)
	}

	if _, err := s.graph.Query(ctx, q); err != nil {
		return fmt.Errorf("upsert document %s: %w", id, err)
	}
	return nil
}

// UpsertParagraph merges a Paragraph node under an existing document. vec may
// be nil to skip the embedding node.
func (s *Store) UpsertParagraph(ctx context.Context, docID, paraID, text string, vec []float32) error {
	q := fmt.Sprintf(
		"MATCH (d:%s {id: '%s'}) MERGE (p:%s {id: '%s'}) ON CREATE SET p.text = '%s' MERGE (d)-[:%s]->(p)",
		LabelDocument, escapeString(docID),
		LabelParagraph, escapeString(paraID), escapeString(text),
		RelHasParagraph)

	if vec != nil {
		q += fmt.Sprintf(
			" MERGE (e:%s {id: '%s'}) ON CREATE SET e.vector = %s MERGE (p)-[:%s]->(e)",
			LabelParagraphEmbedding, escapeString(paraID), vectorLiteral(vec), RelHasEmbedding)
	}

	if _, err := s.graph.Query(ctx, q); err != nil {
		return fmt.Errorf("upsert paragraph %s: %w", paraID, err)
	}
	return nil
}

// LinkParagraph merges a LINKS edge from a paragraph to a document it
// mentions. Both endpoints must already exist.
func (s *Store) LinkParagraph(ctx context.Context, paraID, docID string) error {
	q := fmt.Sprintf(
		"MATCH (p:%s {id: '%s'}), (d:%s {id: '%s'}) MERGE (p)-[:%s]->(d)",
		LabelParagraph, escapeString(paraID),
		LabelDocument, escapeString(docID),
		RelLinks)

	if _, err := s.graph.Query(ctx, q); err != nil {
		return fmt.Errorf("link paragraph %s to document %s: %w", paraID, docID, err)
	}
	return nil
}

// UpsertQuestionAnswer merges a Question node with its embedding and an
// ANSWERED_BY edge to the paragraph that answered it. This is how the system
// learns: future similar questions reach the paragraph through the vector
// index.
func (s *Store) UpsertQuestionAnswer(ctx context.Context, qID, text string, vec []float32, paragraphID string) error {
	q := fmt.Sprintf(
		"MATCH (p:%s {id: '%s'}) MERGE (q:%s {id: '%s'}) ON CREATE SET q.text = '%s' MERGE (q)-[:%s]->(p)",
		LabelParagraph, escapeString(paragraphID),
		LabelQuestion, escapeString(qID), escapeString(text),
		RelAnsweredBy)

	if vec != nil {
		q += fmt.Sprintf(
			" MERGE (e:%s {id: '%s'}) ON CREATE SET e.vector = %s MERGE (q)-[:%s]->(e)",
			LabelQuestionEmbedding, escapeString(qID), vectorLiteral(vec), RelHasEmbedding)
	}

	if _, err := s.graph.Query(ctx, q); err != nil {
		return fmt.Errorf("upsert question %s: %w", qID, err)
	}
	return nil
}

// UpsertTriple merges two Entity nodes and a RELATION edge between them.
// Entities are keyed by name; the relation label is an edge property so the
// edge type stays uniform and indexable.
func (s *Store) UpsertTriple(ctx context.Context, t extract.Triple) error {
	q := fmt.Sprintf(
		"MERGE (s:%s {name: '%s'}) MERGE (o:%s {name: '%s'}) MERGE (s)-[:%s {label: '%s'}]->(o)",
		LabelEntity, escapeString(t.Subject),
		LabelEntity, escapeString(t.Object),
		RelRelation, escapeString(t.Relation))

	if _, err := s.graph.Query(ctx, q); err != nil {
		return fmt.Errorf("upsert triple (%s, %s, %s): %w", t.Subject, t.Relation, t.Object, err)
	}
	return nil
}

// SimilarQuestionParagraphs runs the vector top-K search over stored question
// embeddings and follows ANSWERED_BY to the paragraphs. FalkorDB reports a
// cosine distance; it is converted to a similarity score (1 - distance) so
// higher is better and callers can threshold in [0,1].
func (s *Store) SimilarQuestionParagraphs(ctx context.Context, vec []float32, k int) ([]ScoredParagraph, error) {
	q := fmt.Sprintf(
		"CALL db.idx.vector.queryNodes('%s', 'vector', %d, %s) YIELD node, score "+
			"MATCH (q:%s)-[:%s]->(node) MATCH (q)-[:%s]->(p:%s) "+
			"RETURN p.id, p.text, score",
		questionVectorIndexLabel, k, vectorLiteral(vec),
		LabelQuestion, RelHasEmbedding,
		RelAnsweredBy, LabelParagraph)

	qr, err := s.graph.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]ScoredParagraph, 0, len(qr.Results))
	for _, row := range qr.Results {
		if len(row) < 3 {
			continue
		}
		dist, err := cellFloat(row[2])
		if err != nil {
			s.logger.Warn("vector search: unreadable score in row: %v", err)
			continue
		}
		hits = append(hits, ScoredParagraph{
			ID:    cellString(row[0]),
			Text:  cellString(row[1]),
			Score: 1 - dist,
		})
	}
	return hits, nil
}

// MatchTriples returns stored triples whose subject or object contains any of
// the keywords. Matching is case-insensitive substring; stored entity names
// are already lower-cased by ingestion.
func (s *Store) MatchTriples(ctx context.Context, keywords []string) ([]TripleRow, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(keywords)*2)
	for _, kw := range keywords {
		esc := escapeString(strings.ToLower(kw))
		clauses = append(clauses,
			fmt.Sprintf("toLower(s.name) CONTAINS '%s'", esc),
			fmt.Sprintf("toLower(o.name) CONTAINS '%s'", esc))
	}

	q := fmt.Sprintf(
		"MATCH (s:%s)-[r:%s]->(o:%s) WHERE %s RETURN s.name, r.label, o.name LIMIT 25",
		LabelEntity, RelRelation, LabelEntity, strings.Join(clauses, " OR "))

	qr, err := s.graph.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("match triples: %w", err)
	}

	rows := make([]TripleRow, 0, len(qr.Results))
	for _, row := range qr.Results {
		if len(row) < 3 {
			continue
		}
		rows = append(rows, TripleRow{
			Subject:  cellString(row[0]),
			Relation: cellString(row[1]),
			Object:   cellString(row[2]),
		})
	}
	return rows, nil
}

// CountNodes returns the number of nodes carrying the given label.
func (s *Store) CountNodes(ctx context.Context, label string) (int64, error) {
	qr, err := s.graph.Query(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n)", label))
	if err != nil {
		return 0, fmt.Errorf("count %s nodes: %w", label, err)
	}
	if len(qr.Results) == 0 || len(qr.Results[0]) == 0 {
		return 0, nil
	}
	return cellInt(qr.Results[0][0])
}

// Stats returns node counts for the labels the CLI reports.
type Stats struct {
	Documents  int64
	Paragraphs int64
	Questions  int64
	Entities   int64
}

// CollectStats gathers node counts across the graph.
func (s *Store) CollectStats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.Documents, err = s.CountNodes(ctx, LabelDocument); err != nil {
		return st, err
	}
	if st.Paragraphs, err = s.CountNodes(ctx, LabelParagraph); err != nil {
		return st, err
	}
	if st.Questions, err = s.CountNodes(ctx, LabelQuestion); err != nil {
		return st, err
	}
	if st.Entities, err = s.CountNodes(ctx, LabelEntity); err != nil {
		return st, err
	}
	return st, nil
}

// Reset drops the whole graph, indexes included. The next EnsureSchema
// rebuilds from scratch. Dropping a graph that does not exist is fine.
func (s *Store) Reset(ctx context.Context) error {
	err := s.graph.Delete(ctx)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "empty key") {
		return fmt.Errorf("reset graph %s: %w", s.graph.Name, err)
	}
	s.logger.Info("graph %s dropped", s.graph.Name)
	return nil
}
