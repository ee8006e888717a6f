// Package graphqa is a knowledge-graph question-answering pipeline. Documents
// are split into paragraphs, an LLM extracts (subject, relation, object)
// triples from them, and everything lands in FalkorDB together with embedding
// vectors. Questions are answered by a small workflow graph that retrieves
// context (by vector similarity over previously answered questions, or by
// keyword matching over the triples) and synthesizes an answer with the LLM.
//
// The packages compose bottom-up: kg speaks Cypher to the store, extract and
// llm wrap the models, retrieve implements the two strategies, ingest loads
// files, pipeline wires the workflow, and cmd/graphqa is the CLI.
package graphqa
