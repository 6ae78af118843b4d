package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndGetNode(t *testing.T) {
	s := NewStore()
	id, err := s.CreateNode([]string{"Person"}, map[string]Value{"name": StringValue("Ada")}, nil)
	require.NoError(t, err)

	n, err := s.GetNode(id)
	require.NoError(t, err)
	assert.True(t, n.HasLabel("Person"))
	assert.Equal(t, "Ada", n.Properties["name"].Str)
}

func TestStoreDuplicateIDRejected(t *testing.T) {
	s := NewStore()
	id, err := s.CreateNode(nil, nil, nil)
	require.NoError(t, err)

	_, err = s.CreateNode(nil, nil, &id)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestStoreCreateEdgeMissingEndpoint(t *testing.T) {
	s := NewStore()
	src, _ := s.CreateNode(nil, nil, nil)
	_, err := s.CreateEdge(src, 9999, "KNOWS", nil)
	assert.ErrorIs(t, err, ErrMissingNode)
}

func TestStoreDeleteNodeCascadesEdges(t *testing.T) {
	s := NewStore()
	a, _ := s.CreateNode([]string{"Person"}, nil, nil)
	b, _ := s.CreateNode([]string{"Person"}, nil, nil)
	edgeID, err := s.CreateEdge(a, b, "KNOWS", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(a))
	_, err = s.GetEdge(edgeID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.InEdges(b))
}

func TestStoreNodesByLabelAscendingOrder(t *testing.T) {
	s := NewStore()
	var ids []int64
	for i := 0; i < 5; i++ {
		id, _ := s.CreateNode([]string{"Person"}, nil, nil)
		ids = append(ids, id)
	}
	nodes := s.NodesByLabel("Person")
	for i := 1; i < len(nodes); i++ {
		assert.Less(t, nodes[i-1].ID, nodes[i].ID)
	}
}

func TestStoreBatchEdgeCreateAtomic(t *testing.T) {
	s := NewStore()
	a, _ := s.CreateNode(nil, nil, nil)
	_, err := s.CreateEdgesBatch([]EdgeSpec{
		{Source: a, Target: a, Type: "SELF"},
		{Source: a, Target: 9999, Type: "BROKEN"},
	})
	assert.ErrorIs(t, err, ErrMissingNode)
	assert.Equal(t, 0, s.EdgeCount())
}

func TestStoreNextIDNeverReusedAfterDelete(t *testing.T) {
	s := NewStore()
	a, _ := s.CreateNode(nil, nil, nil)
	require.NoError(t, s.DeleteNode(a))
	b, _ := s.CreateNode(nil, nil, nil)
	assert.Greater(t, b, a)
}

func TestStoreClearResetsCounters(t *testing.T) {
	s := NewStore()
	s.CreateNode(nil, nil, nil)
	s.Clear()
	assert.Equal(t, 0, s.NodeCount())
	id, _ := s.CreateNode(nil, nil, nil)
	assert.Equal(t, int64(1), id)
}

func TestStoreFindNodesByLabelAndProperty(t *testing.T) {
	s := NewStore()
	s.CreateNode([]string{"Person"}, map[string]Value{"name": StringValue("Ada")}, nil)
	s.CreateNode([]string{"Person"}, map[string]Value{"name": StringValue("Bob")}, nil)
	found := s.FindNodes([]string{"Person"}, map[string]Value{"name": StringValue("Bob")})
	require.Len(t, found, 1)
	assert.Equal(t, "Bob", found[0].Properties["name"].Str)
}
