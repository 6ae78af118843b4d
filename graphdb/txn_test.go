package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnCommitKeepsMutation(t *testing.T) {
	s := NewStore()
	mgr := NewTransactionManager(s)

	txn, err := mgr.Begin()
	require.NoError(t, err)
	_, err = s.CreateNode([]string{"Person"}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Commit(txn))

	assert.Equal(t, 1, s.NodeCount())
	assert.False(t, mgr.HasActiveTransaction())
}

func TestTxnRollbackRestoresState(t *testing.T) {
	s := NewStore()
	mgr := NewTransactionManager(s)

	id, err := s.CreateNode([]string{"Person"}, nil, nil)
	require.NoError(t, err)

	txn, err := mgr.Begin()
	require.NoError(t, err)
	s.CreateNode([]string{"Dog"}, nil, nil)
	require.NoError(t, s.DeleteNode(id))
	require.NoError(t, mgr.Rollback(txn))

	assert.Equal(t, 1, s.NodeCount())
	n, err := s.GetNode(id)
	require.NoError(t, err)
	assert.True(t, n.HasLabel("Person"))
}

func TestTxnNestedBeginRejected(t *testing.T) {
	s := NewStore()
	mgr := NewTransactionManager(s)

	_, err := mgr.Begin()
	require.NoError(t, err)
	_, err = mgr.Begin()
	assert.ErrorIs(t, err, ErrNestedTransaction)
}

func TestTransactionHelperRollsBackOnError(t *testing.T) {
	s := NewStore()
	mgr := NewTransactionManager(s)

	sentinelErr := ErrArgumentError
	err := mgr.Transaction(func(txn *Txn) error {
		s.CreateNode(nil, nil, nil)
		return sentinelErr
	})
	assert.ErrorIs(t, err, sentinelErr)
	assert.Equal(t, 0, s.NodeCount())
	assert.False(t, mgr.HasActiveTransaction())
}
