package graphdb

import (
	"github.com/sirupsen/logrus"
)

// GraphDB is the embedded database handle: a Store plus the
// transaction and execution machinery layered over it, ported from
// the teacher's db.go GraphDB struct (storage/bufferPool/indexMgr/
// recordMgr/graph/txnMgr/wal/executor) with the page-cache fields
// replaced by the in-memory Store and the WAL dropped (see DESIGN.md).
type GraphDB struct {
	store    *Store
	txns     *TransactionManager
	executor *Executor
	log      *logrus.Entry
}

// NewGraphDB creates an empty, ready-to-use database.
func NewGraphDB() *GraphDB {
	store := NewStore()
	db := &GraphDB{
		store:    store,
		txns:     NewTransactionManager(store),
		executor: NewExecutor(store),
		log:      logrus.WithField("component", "GraphDB"),
	}
	db.log.Info("graph database initialized")
	return db
}

// ExecuteQuery parses and runs one Cypher statement inside its own
// transaction: parse errors never touch the store, and execution
// failures roll back whatever the statement had already mutated
// (spec §4.5.4's failure semantics).
func (db *GraphDB) ExecuteQuery(query string) (*Result, error) {
	return db.ExecuteQueryWithParams(query, nil)
}

// ExecuteQueryWithParams is ExecuteQuery with query parameters, which
// the evaluator resolves for ParamExpr nodes. The tokenizer does not
// accept `$`, so a parsed query text contains no parameter references.
func (db *GraphDB) ExecuteQueryWithParams(query string, params map[string]Value) (*Result, error) {
	log := db.log.WithField("query", query)

	q, err := ParseQuery(query)
	if err != nil {
		log.WithError(err).Warn("query parse failed")
		return nil, err
	}

	var result *Result
	txnErr := db.txns.Transaction(func(txn *Txn) error {
		var execErr error
		result, execErr = db.executor.Execute(q, params)
		return execErr
	})
	if txnErr != nil {
		log.WithError(txnErr).Warn("query execution failed, transaction rolled back")
		return nil, txnErr
	}
	log.WithField("rows", result.Len()).Debug("query executed")
	return result, nil
}

// Begin opens a transaction the caller drives explicitly, so that
// several direct Store mutations share one rollback unit. While it is
// open, ExecuteQuery fails with ErrNestedTransaction, because every
// query runs in a transaction of its own.
func (db *GraphDB) Begin() (*Txn, error) { return db.txns.Begin() }

// Commit finalizes an explicitly-opened transaction.
func (db *GraphDB) Commit(txn *Txn) error { return db.txns.Commit(txn) }

// Rollback discards an explicitly-opened transaction's mutations.
func (db *GraphDB) Rollback(txn *Txn) error { return db.txns.Rollback(txn) }

// Store exposes the underlying Store for callers that want direct,
// non-Cypher access (programmatic API per spec §6).
func (db *GraphDB) Store() *Store { return db.store }

// NodeLabels returns every distinct label currently present, used by
// the REPL's DESCRIBE command.
func (db *GraphDB) NodeLabels() []string {
	labels := make([]string, 0)
	seen := make(map[string]struct{})
	for _, n := range db.store.AllNodes() {
		for _, l := range n.Labels {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				labels = append(labels, l)
			}
		}
	}
	return labels
}

// RelationshipTypes returns every distinct relationship type currently
// present.
func (db *GraphDB) RelationshipTypes() []string {
	types := make([]string, 0)
	seen := make(map[string]struct{})
	for _, e := range db.store.AllEdges() {
		if _, ok := seen[e.Type]; !ok {
			seen[e.Type] = struct{}{}
			types = append(types, e.Type)
		}
	}
	return types
}

// Close releases any resources held by the database. The in-memory
// store holds none; Close exists for symmetry with callers that
// always pair NewGraphDB with a deferred Close, matching the
// teacher's db.go lifecycle shape.
func (db *GraphDB) Close() error {
	db.log.Info("graph database closed")
	return nil
}
