package graphdb

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Txn is a handle to an in-flight transaction. It holds the snapshot
// captured at Begin so Rollback can restore the store to exactly that
// state (ported from contextgraph.transaction.Transaction, which
// captures/restores the whole graph rather than replaying an
// operation log — the teacher's transaction_manager.go/wal.go
// operation-log approach was dropped, see DESIGN.md).
type Txn struct {
	ID       string
	store    *Store
	snapshot Snapshot
	active   bool
}

// TransactionManager serializes access to one Store's transaction
// lifecycle: at most one Txn may be active at a time (spec §4.2,
// nesting forbidden).
type TransactionManager struct {
	store   *Store
	current *Txn
	log     *logrus.Entry
}

// NewTransactionManager wraps a Store with transaction support.
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store, log: logrus.WithField("component", "TransactionManager")}
}

// HasActiveTransaction reports whether a transaction is currently open.
func (m *TransactionManager) HasActiveTransaction() bool {
	return m.current != nil
}

// Begin opens a new transaction, capturing the store's current state.
// Calling Begin while a transaction is already active fails with
// ErrNestedTransaction.
func (m *TransactionManager) Begin() (*Txn, error) {
	if m.current != nil {
		m.log.Error("attempted to begin nested transaction")
		return nil, ErrNestedTransaction
	}
	txn := &Txn{
		ID:       uuid.NewString(),
		store:    m.store,
		snapshot: m.store.Snapshot(),
		active:   true,
	}
	m.current = txn
	m.log.WithField("txn_id", txn.ID).Debug("transaction begun")
	return txn, nil
}

// Commit finalizes a transaction. Per spec §4.2, commit is a no-op on
// store state (every mutation already happened directly against the
// store); it only clears the active-transaction slot and discards the
// snapshot.
func (m *TransactionManager) Commit(txn *Txn) error {
	if m.current != txn || !txn.active {
		return fmt.Errorf("%w: commit called on inactive or unknown transaction", ErrArgumentError)
	}
	txn.active = false
	m.current = nil
	m.log.WithField("txn_id", txn.ID).Debug("transaction committed")
	return nil
}

// Rollback restores the store to its state at Begin and closes the
// transaction.
func (m *TransactionManager) Rollback(txn *Txn) error {
	if m.current != txn || !txn.active {
		return fmt.Errorf("%w: rollback called on inactive or unknown transaction", ErrArgumentError)
	}
	m.store.Restore(txn.snapshot)
	txn.active = false
	m.current = nil
	m.log.WithField("txn_id", txn.ID).Info("transaction rolled back")
	return nil
}

// Transaction runs fn within a new transaction: fn's error triggers a
// rollback, a nil error triggers a commit. Mirrors
// contextgraph.transaction.TransactionManager.transaction's
// @contextmanager scoped form.
func (m *TransactionManager) Transaction(fn func(*Txn) error) error {
	txn, err := m.Begin()
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		if rbErr := m.Rollback(txn); rbErr != nil {
			return fmt.Errorf("rollback after error %v failed: %w", err, rbErr)
		}
		return err
	}
	return m.Commit(txn)
}
