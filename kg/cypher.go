package kg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Conn is the slice of the redis client the graph needs. *redis.Client
// satisfies it; tests substitute a fake returning canned replies.
type Conn interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
	Close() error
}

// Graph speaks Cypher to a single named FalkorDB graph over a redis
// connection.
type Graph struct {
	Name string
	Conn Conn
}

// QueryResult holds the decoded sections of a GRAPH.QUERY reply.
type QueryResult struct {
	Header     []string
	Results    [][]interface{}
	Statistics []string
}

// Query executes a Cypher query against the graph. Replies come back in
// compact form: three sections (header, rows, stats) for reading queries, two
// (rows, stats) for pure writes.
func (g *Graph) Query(ctx context.Context, cypher string) (QueryResult, error) {
	qr := QueryResult{}

	res, err := g.Conn.Do(ctx, "GRAPH.QUERY", g.Name, cypher, "--compact").Result()
	if err != nil {
		return qr, err
	}

	r, ok := res.([]interface{})
	if !ok {
		return qr, fmt.Errorf("unexpected response type: %T", res)
	}

	switch len(r) {
	case 3:
		if header, ok := r[0].([]interface{}); ok {
			qr.Header = make([]string, len(header))
			for i, h := range header {
				qr.Header[i] = fmt.Sprint(h)
			}
		}
		qr.Results = decodeRows(r[1])
		qr.Statistics = decodeStats(r[2])
	case 2:
		qr.Results = decodeRows(r[0])
		qr.Statistics = decodeStats(r[1])
	default:
		return qr, fmt.Errorf("unexpected response length: %d", len(r))
	}

	return qr, nil
}

// Delete removes the whole graph. FalkorDB answers with an error when the
// graph does not exist; callers that want idempotent resets check for it.
func (g *Graph) Delete(ctx context.Context) error {
	return g.Conn.Do(ctx, "GRAPH.DELETE", g.Name).Err()
}

func decodeRows(section interface{}) [][]interface{} {
	rows, ok := section.([]interface{})
	if !ok {
		return nil
	}
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		if vals, ok := row.([]interface{}); ok {
			out[i] = vals
		}
	}
	return out
}

func decodeStats(section interface{}) []string {
	stats, ok := section.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = fmt.Sprint(s)
	}
	return out
}

// scalarValue unwraps a compact-mode cell. Compact replies encode scalars as
// [type, value] pairs; plain replies hand the value through directly.
func scalarValue(cell interface{}) interface{} {
	if pair, ok := cell.([]interface{}); ok && len(pair) == 2 {
		if _, isInt := pair[0].(int64); isInt {
			return pair[1]
		}
	}
	return cell
}

// cellString decodes a cell as a string.
func cellString(cell interface{}) string {
	switch v := scalarValue(cell).(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// cellFloat decodes a cell as a float64. FalkorDB returns doubles as strings
// over the redis protocol.
func cellFloat(cell interface{}) (float64, error) {
	switch v := scalarValue(cell).(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("cell %v (%T) is not numeric", cell, cell)
	}
}

// cellInt decodes a cell as an int64.
func cellInt(cell interface{}) (int64, error) {
	switch v := scalarValue(cell).(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("cell %v (%T) is not an integer", cell, cell)
	}
}

// escapeString makes a value safe inside a single-quoted Cypher literal.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// vectorLiteral renders a float32 slice as a vecf32 Cypher literal.
func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, f := range vec {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "vecf32([" + strings.Join(parts, ",") + "])"
}
