package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustExec(t *testing.T, db *GraphDB, query string) *Result {
	t.Helper()
	res, err := db.ExecuteQuery(query)
	require.NoError(t, err, "query: %s", query)
	return res
}

func TestEndToEndCreateMatchCascadeDelete(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (a:Person {name: "Ada"})-[:KNOWS]->(b:Person {name: "Bob"})`)

	res := mustExec(t, db, `MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a.name, b.name`)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "Ada", res.Records[0].Value("a.name").Str)
	assert.Equal(t, "Bob", res.Records[0].Value("b.name").Str)

	mustExec(t, db, `MATCH (a:Person {name: "Ada"}) DELETE a`)
	res = mustExec(t, db, `MATCH (a)-[r]->(b) RETURN r`)
	assert.Equal(t, 0, res.Len())
}

func TestEndToEndFilterAndOrderBy(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (n:Person {name: "Carl", age: 40})`)
	mustExec(t, db, `CREATE (n:Person {name: "Ada", age: 30})`)
	mustExec(t, db, `CREATE (n:Person {name: "Bob", age: 50})`)

	res := mustExec(t, db, `MATCH (n:Person) WHERE n.age > 25 RETURN n.name ORDER BY n.name ASC`)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "Ada", res.Records[0].Value("n.name").Str)
	assert.Equal(t, "Bob", res.Records[1].Value("n.name").Str)
	assert.Equal(t, "Carl", res.Records[2].Value("n.name").Str)
}

func TestEndToEndAggregateGrouping(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (n:Person {city: "NYC"})`)
	mustExec(t, db, `CREATE (n:Person {city: "NYC"})`)
	mustExec(t, db, `CREATE (n:Person {city: "LA"})`)

	res := mustExec(t, db, `MATCH (n:Person) RETURN n.city, COUNT(n) AS total ORDER BY n.city`)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "LA", res.Records[0].Value("n.city").Str)
	assert.Equal(t, int64(1), res.Records[0].Value("total").Int)
	assert.Equal(t, "NYC", res.Records[1].Value("n.city").Str)
	assert.Equal(t, int64(2), res.Records[1].Value("total").Int)
}

func TestEndToEndVariableLengthPath(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (a:Person {name: "A"})-[:KNOWS]->(b:Person {name: "B"})-[:KNOWS]->(c:Person {name: "C"})`)

	res := mustExec(t, db, `MATCH (a:Person {name: "A"})-[:KNOWS*1..2]->(x) RETURN x.name ORDER BY x.name`)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "B", res.Records[0].Value("x.name").Str)
	assert.Equal(t, "C", res.Records[1].Value("x.name").Str)
}

func TestEndToEndStringSearchAndRegex(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (n:Person {name: "Alice"})`)
	mustExec(t, db, `CREATE (n:Person {name: "Bob"})`)

	res := mustExec(t, db, `MATCH (n:Person) WHERE n.name =~ "^Al.*" RETURN n.name`)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "Alice", res.Records[0].Value("n.name").Str)

	res = mustExec(t, db, `MATCH (n:Person) WHERE n.name CONTAINS "o" RETURN n.name`)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "Bob", res.Records[0].Value("n.name").Str)
}

func TestEndToEndTransactionRollbackOnFailedQuery(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (n:Person {name: "Ada"})`)

	_, err := db.ExecuteQuery(`CREATE (x:Person {name: "Temp"}) WITH x WHERE missing.name = "Z" RETURN x`)
	assert.Error(t, err)
	assert.Equal(t, 1, db.Store().NodeCount())
}

func TestEndToEndSnapshotRoundTripBinary(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (n:Person {name: "Ada", age: 30, score: 4.5, active: true, tags: ["x","y"]})`)

	dir := t.TempDir()
	path := dir + "/snapshot.gdb"
	require.NoError(t, db.Store().SaveBinary(path))

	restored := NewGraphDB()
	require.NoError(t, restored.Store().LoadBinary(path))

	res := mustExec(t, restored, `MATCH (n:Person) RETURN n.name, n.age, n.score, n.active, n.tags`)
	require.Equal(t, 1, res.Len())
	rec := res.Records[0]
	assert.Equal(t, "Ada", rec.Value("n.name").Str)
	assert.Equal(t, int64(30), rec.Value("n.age").Int)
	assert.InDelta(t, 4.5, rec.Value("n.score").Float, 0.0001)
	assert.True(t, rec.Value("n.active").Bool)
	assert.Len(t, rec.Value("n.tags").List, 2)
}

func TestEndToEndSnapshotRoundTripText(t *testing.T) {
	db := NewGraphDB()
	mustExec(t, db, `CREATE (a:Person {name: "Ada"})-[:KNOWS {since: 2020}]->(b:Person {name: "Bob"})`)

	dir := t.TempDir()
	path := dir + "/snapshot.yaml"
	require.NoError(t, db.Store().SaveText(path))

	restored := NewGraphDB()
	require.NoError(t, restored.Store().LoadText(path))

	res := mustExec(t, restored, `MATCH (a)-[r:KNOWS]->(b) RETURN r.since`)
	require.Equal(t, 1, res.Len())
	assert.EqualValues(t, 2020, res.Records[0].Value("r.since").Int)
}
