package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := ParseQuery(`MATCH (n:Person) RETURN n.name`)
	require.NoError(t, err)
	require.NotNil(t, q.Match)
	require.Len(t, q.Match.Patterns, 1)
	assert.Equal(t, "Person", q.Match.Patterns[0].Nodes[0].Labels[0])
	require.NotNil(t, q.Return)
	assert.Equal(t, "n", q.Return.Items[0].Expr.(PropertyExpr).Variable)
}

func TestParseMultiHopPattern(t *testing.T) {
	q, err := ParseQuery(`MATCH (a:Person)-[:KNOWS]->(b:Person)-[:LIKES]->(c:Thing) RETURN a, c`)
	require.NoError(t, err)
	p := q.Match.Patterns[0]
	assert.Len(t, p.Nodes, 3)
	assert.Len(t, p.Rels, 2)
	assert.Equal(t, DirRight, p.Rels[0].Direction)
}

func TestParseWhereAndOrNotPrecedence(t *testing.T) {
	q, err := ParseQuery(`MATCH (n) WHERE n.a = 1 AND n.b = 2 OR NOT n.c = 3 RETURN n`)
	require.NoError(t, err)
	top, ok := q.Where.Condition.(BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "OR", top.Op)
	left, ok := top.Left.(BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "AND", left.Op)
}

func TestParseVariableLengthRange(t *testing.T) {
	q, err := ParseQuery(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN b`)
	require.NoError(t, err)
	rel := q.Match.Patterns[0].Rels[0]
	require.NotNil(t, rel.VarLength)
	assert.Equal(t, 1, rel.VarLength.Min)
	assert.Equal(t, 3, rel.VarLength.Max)
}

func TestParseVariableLengthUnboundedRejected(t *testing.T) {
	_, err := ParseQuery(`MATCH (a)-[:KNOWS*2..]->(b) RETURN b`)
	assert.Error(t, err)
}

func TestParseVariableLengthExceedsCapRejected(t *testing.T) {
	_, err := ParseQuery(`MATCH (a)-[:KNOWS*1..50]->(b) RETURN b`)
	assert.Error(t, err)
}

func TestParseOrderBySkipLimit(t *testing.T) {
	q, err := ParseQuery(`MATCH (n) RETURN n.name ORDER BY n.name DESC SKIP 2 LIMIT 5`)
	require.NoError(t, err)
	require.Len(t, q.OrderBy, 1)
	assert.True(t, q.OrderBy[0].Descending)
	require.NotNil(t, q.Skip)
	assert.Equal(t, int64(2), *q.Skip)
	require.NotNil(t, q.Limit)
	assert.Equal(t, int64(5), *q.Limit)
}

func TestParseAggregateAndDistinct(t *testing.T) {
	q, err := ParseQuery(`MATCH (n:Person) RETURN n.city, COUNT(DISTINCT n.name) AS total`)
	require.NoError(t, err)
	fn, ok := q.Return.Items[1].Expr.(FunctionCallExpr)
	require.True(t, ok)
	assert.Equal(t, "COUNT", fn.Name)
	assert.True(t, fn.Distinct)
	assert.Equal(t, "total", q.Return.Items[1].Alias)
}

func TestParseRegexAndStringOperators(t *testing.T) {
	q, err := ParseQuery(`MATCH (n) WHERE n.name =~ 'A.*' AND n.city CONTAINS 'ville' RETURN n`)
	require.NoError(t, err)
	top := q.Where.Condition.(BinaryExpr)
	assert.Equal(t, "AND", top.Op)
	left := top.Left.(BinaryExpr)
	assert.Equal(t, "=~", left.Op)
}

func TestParseCreateWithProperties(t *testing.T) {
	q, err := ParseQuery(`CREATE (n:Person {name: "Ada", age: 30})`)
	require.NoError(t, err)
	np := q.Create.Patterns[0].Nodes[0]
	assert.Equal(t, "Person", np.Labels[0])
	lit := np.Properties["name"].(LiteralExpr)
	assert.Equal(t, "Ada", lit.Value.Str)
}
