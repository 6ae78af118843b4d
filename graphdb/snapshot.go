package graphdb

// Snapshot is an opaque, deep copy of a Store's entire state, used by
// Txn to implement rollback-by-restore (ported from
// contextgraph.transaction.Transaction._capture_state /
// _restore_state, which snapshot the whole igraph graph rather than
// logging individual operations).
type Snapshot struct {
	nodes      map[int64]Node
	edges      map[int64]Edge
	labelIndex map[string]map[int64]struct{}
	typeIndex  map[string]map[int64]struct{}
	adjOut     map[int64][]int64
	adjIn      map[int64][]int64
	nextNodeID int64
	nextEdgeID int64
}

func cloneIDSet(m map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func cloneIndex(idx map[string]map[int64]struct{}) map[string]map[int64]struct{} {
	out := make(map[string]map[int64]struct{}, len(idx))
	for k, v := range idx {
		out[k] = cloneIDSet(v)
	}
	return out
}

func cloneAdjacency(adj map[int64][]int64) map[int64][]int64 {
	out := make(map[int64][]int64, len(adj))
	for k, v := range adj {
		ids := make([]int64, len(v))
		copy(ids, v)
		out[k] = ids
	}
	return out
}

// Snapshot captures the store's entire state as an independent deep
// copy; mutating the store afterward cannot affect the snapshot.
func (s *Store) Snapshot() Snapshot {
	nodes := make(map[int64]Node, len(s.nodes))
	for id, n := range s.nodes {
		nodes[id] = n.Clone()
	}
	edges := make(map[int64]Edge, len(s.edges))
	for id, e := range s.edges {
		edges[id] = e.Clone()
	}
	return Snapshot{
		nodes:      nodes,
		edges:      edges,
		labelIndex: cloneIndex(s.labelIndex),
		typeIndex:  cloneIndex(s.typeIndex),
		adjOut:     cloneAdjacency(s.adjOut),
		adjIn:      cloneAdjacency(s.adjIn),
		nextNodeID: s.nextNodeID,
		nextEdgeID: s.nextEdgeID,
	}
}

// SnapshotDeduped captures the store's state like Snapshot, but
// collapses concurrent callers onto one in-flight deep copy via
// singleflight — used by SaveBinary/SaveText so that several goroutines
// issuing a save at once each get a consistent point-in-time copy
// without each paying for its own full deep copy.
func (s *Store) SnapshotDeduped() Snapshot {
	v, _, _ := s.sf.Do("snapshot", func() (interface{}, error) {
		return s.Snapshot(), nil
	})
	return v.(Snapshot)
}

// Restore replaces the store's entire state with a previously
// captured Snapshot. Used by TransactionManager.Rollback; never called concurrently
// with an in-flight mutation (spec §5, single-writer model).
func (s *Store) Restore(snap Snapshot) {
	nodes := make(map[int64]Node, len(snap.nodes))
	for id, n := range snap.nodes {
		nodes[id] = n.Clone()
	}
	edges := make(map[int64]Edge, len(snap.edges))
	for id, e := range snap.edges {
		edges[id] = e.Clone()
	}
	s.nodes = nodes
	s.edges = edges
	s.labelIndex = cloneIndex(snap.labelIndex)
	s.typeIndex = cloneIndex(snap.typeIndex)
	s.adjOut = cloneAdjacency(snap.adjOut)
	s.adjIn = cloneAdjacency(snap.adjIn)
	s.nextNodeID = snap.nextNodeID
	s.nextEdgeID = snap.nextEdgeID
	s.log.Info("store restored from snapshot")
}

// BulkLoad replaces the store's contents in one pass, building every
// index in O(n) instead of replaying n individual CreateNode/CreateEdge
// calls. Used by the binary/text snapshot codecs on load.
func (s *Store) BulkLoad(nodes []Node, edges []Edge, nextNodeID, nextEdgeID int64) {
	s.nodes = make(map[int64]Node, len(nodes))
	s.edges = make(map[int64]Edge, len(edges))
	s.labelIndex = make(map[string]map[int64]struct{})
	s.typeIndex = make(map[string]map[int64]struct{})
	s.adjOut = make(map[int64][]int64)
	s.adjIn = make(map[int64][]int64)

	for _, n := range nodes {
		s.nodes[n.ID] = n.Clone()
		for _, l := range n.Labels {
			if s.labelIndex[l] == nil {
				s.labelIndex[l] = make(map[int64]struct{})
			}
			s.labelIndex[l][n.ID] = struct{}{}
		}
	}
	for _, e := range edges {
		s.edges[e.ID] = e.Clone()
		s.indexEdge(e)
	}
	s.nextNodeID = nextNodeID
	s.nextEdgeID = nextEdgeID
	s.log.WithField("nodes", len(nodes)).WithField("edges", len(edges)).Info("bulk load complete")
}
