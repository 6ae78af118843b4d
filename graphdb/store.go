package graphdb

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// EdgeSpec describes one edge to create in a batch call.
type EdgeSpec struct {
	Source     int64
	Target     int64
	Type       string
	Properties map[string]Value
}

// Store is the in-memory property graph: node/edge maps, label/type
// indexes, and insertion-ordered adjacency lists. All mutators are
// O(1) or O(k) in the size of what they touch (spec §4.1's "key
// algorithm" — endpoint existence is a direct map lookup, never a
// scan). The store is single-writer; see spec §5.
type Store struct {
	nodes map[int64]Node
	edges map[int64]Edge

	labelIndex map[string]map[int64]struct{}
	typeIndex  map[string]map[int64]struct{}

	adjOut map[int64][]int64 // node id -> edge ids, insertion order
	adjIn  map[int64][]int64

	nextNodeID int64
	nextEdgeID int64

	sf  singleflight.Group
	log *logrus.Entry
}

// NewStore initializes an empty Store.
func NewStore() *Store {
	log := logrus.WithField("component", "Store")
	log.Info("initializing store")
	return &Store{
		nodes:      make(map[int64]Node),
		edges:      make(map[int64]Edge),
		labelIndex: make(map[string]map[int64]struct{}),
		typeIndex:  make(map[string]map[int64]struct{}),
		adjOut:     make(map[int64][]int64),
		adjIn:      make(map[int64][]int64),
		nextNodeID: 1,
		nextEdgeID: 1,
		log:        log,
	}
}

func dedupeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// CreateNode adds a node, optionally with a caller-chosen id. If id
// is already in use it fails with ErrDuplicateID; otherwise next_node_id
// advances strictly past it (Invariant 5).
func (s *Store) CreateNode(labels []string, props map[string]Value, id *int64) (int64, error) {
	log := s.log.WithField("labels", labels)

	var nodeID int64
	if id != nil {
		if _, exists := s.nodes[*id]; exists {
			log.WithField("id", *id).Error("duplicate node id")
			return 0, fmt.Errorf("%w: node %d", ErrDuplicateID, *id)
		}
		nodeID = *id
		if nodeID >= s.nextNodeID {
			s.nextNodeID = nodeID + 1
		}
	} else {
		nodeID = s.nextNodeID
		s.nextNodeID++
	}

	if props == nil {
		props = make(map[string]Value)
	}
	node := Node{ID: nodeID, Labels: dedupeLabels(labels), Properties: cloneProperties(props)}
	s.nodes[nodeID] = node

	for _, l := range node.Labels {
		if s.labelIndex[l] == nil {
			s.labelIndex[l] = make(map[int64]struct{})
		}
		s.labelIndex[l][nodeID] = struct{}{}
	}

	log.WithField("node_id", nodeID).Debug("node created")
	return nodeID, nil
}

// CreateEdge adds a directed edge between two existing nodes.
func (s *Store) CreateEdge(src, dst int64, typ string, props map[string]Value) (int64, error) {
	if _, ok := s.nodes[src]; !ok {
		return 0, fmt.Errorf("%w: source %d", ErrMissingNode, src)
	}
	if _, ok := s.nodes[dst]; !ok {
		return 0, fmt.Errorf("%w: target %d", ErrMissingNode, dst)
	}

	edgeID := s.nextEdgeID
	s.nextEdgeID++
	if props == nil {
		props = make(map[string]Value)
	}
	edge := Edge{ID: edgeID, Type: typ, Source: src, Target: dst, Properties: cloneProperties(props)}
	s.edges[edgeID] = edge
	s.indexEdge(edge)

	s.log.WithFields(logrus.Fields{"edge_id": edgeID, "type": typ, "source": src, "target": dst}).Debug("edge created")
	return edgeID, nil
}

func (s *Store) indexEdge(edge Edge) {
	if s.typeIndex[edge.Type] == nil {
		s.typeIndex[edge.Type] = make(map[int64]struct{})
	}
	s.typeIndex[edge.Type][edge.ID] = struct{}{}
	s.adjOut[edge.Source] = append(s.adjOut[edge.Source], edge.ID)
	s.adjIn[edge.Target] = append(s.adjIn[edge.Target], edge.ID)
}

// CreateEdgesBatch creates multiple edges atomically: endpoints are
// validated for all specs before any edge is created, so a failure
// leaves the store untouched (spec §4.1 "no partial mutation is
// visible on failure of a batch call").
func (s *Store) CreateEdgesBatch(specs []EdgeSpec) ([]int64, error) {
	for _, spec := range specs {
		if _, ok := s.nodes[spec.Source]; !ok {
			return nil, fmt.Errorf("%w: source %d", ErrMissingNode, spec.Source)
		}
		if _, ok := s.nodes[spec.Target]; !ok {
			return nil, fmt.Errorf("%w: target %d", ErrMissingNode, spec.Target)
		}
	}

	ids := make([]int64, 0, len(specs))
	for _, spec := range specs {
		edgeID := s.nextEdgeID
		s.nextEdgeID++
		props := spec.Properties
		if props == nil {
			props = make(map[string]Value)
		}
		edge := Edge{ID: edgeID, Type: spec.Type, Source: spec.Source, Target: spec.Target, Properties: cloneProperties(props)}
		s.edges[edgeID] = edge
		s.indexEdge(edge)
		ids = append(ids, edgeID)
	}
	s.log.WithField("count", len(ids)).Info("batch edge create complete")
	return ids, nil
}

// DeleteNode removes a node and cascades to every incident edge
// (Invariant 1).
func (s *Store) DeleteNode(id int64) error {
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNotFound, id)
	}

	incident := make(map[int64]struct{})
	for _, eid := range s.adjOut[id] {
		incident[eid] = struct{}{}
	}
	for _, eid := range s.adjIn[id] {
		incident[eid] = struct{}{}
	}
	for eid := range incident {
		_ = s.DeleteEdge(eid)
	}

	for _, l := range node.Labels {
		delete(s.labelIndex[l], id)
		if len(s.labelIndex[l]) == 0 {
			delete(s.labelIndex, l)
		}
	}
	delete(s.adjOut, id)
	delete(s.adjIn, id)
	delete(s.nodes, id)

	s.log.WithField("node_id", id).Info("node deleted")
	return nil
}

// DeleteEdge removes an edge and updates every index/adjacency list
// that referenced it.
func (s *Store) DeleteEdge(id int64) error {
	edge, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("%w: edge %d", ErrNotFound, id)
	}

	delete(s.typeIndex[edge.Type], id)
	if len(s.typeIndex[edge.Type]) == 0 {
		delete(s.typeIndex, edge.Type)
	}
	s.adjOut[edge.Source] = removeID(s.adjOut[edge.Source], id)
	s.adjIn[edge.Target] = removeID(s.adjIn[edge.Target], id)
	delete(s.edges, id)

	s.log.WithField("edge_id", id).Debug("edge deleted")
	return nil
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// SetNodeProperty sets a single property key on a node.
func (s *Store) SetNodeProperty(id int64, key string, val Value) error {
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	node.Properties[key] = val.Clone()
	s.nodes[id] = node
	return nil
}

// SetEdgeProperty sets a single property key on an edge.
func (s *Store) SetEdgeProperty(id int64, key string, val Value) error {
	edge, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("%w: edge %d", ErrNotFound, id)
	}
	edge.Properties[key] = val.Clone()
	s.edges[id] = edge
	return nil
}

// RemoveNodeProperty deletes a property key from a node.
func (s *Store) RemoveNodeProperty(id int64, key string) error {
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	delete(node.Properties, key)
	return nil
}

// RemoveEdgeProperty deletes a property key from an edge.
func (s *Store) RemoveEdgeProperty(id int64, key string) error {
	edge, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("%w: edge %d", ErrNotFound, id)
	}
	delete(edge.Properties, key)
	return nil
}

// AddNodeLabel adds a label to an already-created node (additive, per
// CREATE-over-bound-node semantics in spec §4.5.3).
func (s *Store) AddNodeLabel(id int64, label string) error {
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	if node.HasLabel(label) {
		return nil
	}
	node.Labels = append(node.Labels, label)
	s.nodes[id] = node
	if s.labelIndex[label] == nil {
		s.labelIndex[label] = make(map[int64]struct{})
	}
	s.labelIndex[label][id] = struct{}{}
	return nil
}

// GetNode returns a deep copy of the node, or ErrNotFound.
func (s *Store) GetNode(id int64) (Node, error) {
	node, ok := s.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: node %d", ErrNotFound, id)
	}
	return node.Clone(), nil
}

// GetEdge returns a deep copy of the edge, or ErrNotFound.
func (s *Store) GetEdge(id int64) (Edge, error) {
	edge, ok := s.edges[id]
	if !ok {
		return Edge{}, fmt.Errorf("%w: edge %d", ErrNotFound, id)
	}
	return edge.Clone(), nil
}

// NodesByLabel returns every node carrying the given label, in
// ascending node-id order (spec §5 determinism guarantee for initial
// candidate sets).
func (s *Store) NodesByLabel(label string) []Node {
	ids := make([]int64, 0, len(s.labelIndex[label]))
	for id := range s.labelIndex[label] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// AllNodes returns every live node in ascending id order.
func (s *Store) AllNodes() []Node {
	ids := make([]int64, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// EdgesByType returns every edge of the given type, in ascending
// edge-id order.
func (s *Store) EdgesByType(typ string) []Edge {
	ids := make([]int64, 0, len(s.typeIndex[typ]))
	for id := range s.typeIndex[typ] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Edge, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.edges[id].Clone())
	}
	return out
}

// AllEdges returns every live edge in ascending id order.
func (s *Store) AllEdges() []Edge {
	ids := make([]int64, 0, len(s.edges))
	for id := range s.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Edge, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.edges[id].Clone())
	}
	return out
}

// OutEdges returns the edge ids leaving node id, in insertion order.
func (s *Store) OutEdges(id int64) []int64 {
	out := make([]int64, len(s.adjOut[id]))
	copy(out, s.adjOut[id])
	return out
}

// InEdges returns the edge ids entering node id, in insertion order.
func (s *Store) InEdges(id int64) []int64 {
	out := make([]int64, len(s.adjIn[id]))
	copy(out, s.adjIn[id])
	return out
}

// FindNodes returns nodes carrying every given label and matching
// every given property. This is a standalone programmatic convenience
// on top of the label index (ported from
// contextgraph.graphdb.find_nodes) for callers using the Store
// directly rather than through a Cypher query; the executor's own
// pattern matching (candidateNodes) does its own label/property scan
// with expression-valued properties and does not call this.
func (s *Store) FindNodes(labels []string, props map[string]Value) []Node {
	var candidates []Node
	var extraLabels []string
	if len(labels) > 0 {
		candidates = s.NodesByLabel(labels[0])
		extraLabels = labels[1:]
	} else {
		candidates = s.AllNodes()
	}
	out := make([]Node, 0, len(candidates))
	for _, n := range candidates {
		ok := true
		for _, l := range extraLabels {
			if !n.HasLabel(l) {
				ok = false
				break
			}
		}
		if ok {
			for k, v := range props {
				pv, exists := n.Properties[k]
				if !exists || !pv.Equal(v) {
					ok = false
					break
				}
			}
		}
		if ok {
			out = append(out, n)
		}
	}
	return out
}

// FindRelationships returns edges of the given type (if non-empty)
// matching every given property.
func (s *Store) FindRelationships(typ string, props map[string]Value) []Edge {
	var candidates []Edge
	if typ != "" {
		candidates = s.EdgesByType(typ)
	} else {
		candidates = s.AllEdges()
	}
	out := make([]Edge, 0, len(candidates))
	for _, e := range candidates {
		ok := true
		for k, v := range props {
			pv, exists := e.Properties[k]
			if !exists || !pv.Equal(v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of live nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of live edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Clear resets the store to empty, including id counters (used by the
// REPL's CLEAR command).
func (s *Store) Clear() {
	s.nodes = make(map[int64]Node)
	s.edges = make(map[int64]Edge)
	s.labelIndex = make(map[string]map[int64]struct{})
	s.typeIndex = make(map[string]map[int64]struct{})
	s.adjOut = make(map[int64][]int64)
	s.adjIn = make(map[int64][]int64)
	s.nextNodeID = 1
	s.nextEdgeID = 1
	s.log.Info("store cleared")
}
