// Package graph implements the workflow engine behind the question-answering
// pipelines: a typed state graph with named nodes, static edges and a single
// entry point, compiled into a runnable that threads a state struct from node
// to node until the END marker.
//
// The engine is deliberately minimal. Topologies are fixed at build time,
// every node has exactly one outgoing edge, and a node error fails the whole
// invocation. Callers that need to survive a failed run (the chat loop does)
// catch the error and keep their own state.
package graph
