package graphdb

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var textSnapshotLog = logrus.WithField("component", "TextSnapshot")

// textSnapshot is the YAML-serializable shape of a store's contents,
// matching spec.md §6's logical shape (next_node_id, next_edge_id,
// nodes, edges) and ported from contextgraph.graphdb.GraphDB.save's
// JSON document shape, translated to the teacher's YAML-via-logrus
// idiom instead of JSON.
type textSnapshot struct {
	NextNodeID int64           `yaml:"next_node_id"`
	NextEdgeID int64           `yaml:"next_edge_id"`
	Nodes      []textNode      `yaml:"nodes"`
	Edges      []textEdge      `yaml:"edges"`
}

type textNode struct {
	ID         int64                  `yaml:"id"`
	Labels     []string               `yaml:"labels"`
	Properties map[string]interface{} `yaml:"properties"`
}

type textEdge struct {
	ID         int64                  `yaml:"id"`
	Type       string                 `yaml:"type"`
	Source     int64                  `yaml:"source"`
	Target     int64                  `yaml:"target"`
	Properties map[string]interface{} `yaml:"properties"`
}

// SaveText writes the store's contents as a human-readable YAML
// document, a text-format complement to SaveBinary. Like SaveBinary,
// it operates over a SnapshotDeduped() copy so concurrent callers
// collapse onto one in-flight deep copy and the written state cannot
// shift mid-write.
func (s *Store) SaveText(filename string) error {
	snap := s.SnapshotDeduped()
	doc := textSnapshot{
		NextNodeID: snap.nextNodeID,
		NextEdgeID: snap.nextEdgeID,
	}
	nodes := make([]Node, 0, len(snap.nodes))
	for _, n := range snap.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	edges := make([]Edge, 0, len(snap.edges))
	for _, e := range snap.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, textNode{ID: n.ID, Labels: n.Labels, Properties: nativeProperties(n.Properties)})
	}
	for _, e := range edges {
		doc.Edges = append(doc.Edges, textEdge{ID: e.ID, Type: e.Type, Source: e.Source, Target: e.Target, Properties: nativeProperties(e.Properties)})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	textSnapshotLog.WithFields(logrus.Fields{
		"file": filename, "nodes": len(doc.Nodes), "edges": len(doc.Edges),
	}).Info("text snapshot saved")
	return nil
}

// LoadText replaces the store's contents with a YAML document
// previously written by SaveText.
func (s *Store) LoadText(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	var doc textSnapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	nodes := make([]Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = Node{ID: n.ID, Labels: n.Labels, Properties: valueProperties(n.Properties)}
	}
	edges := make([]Edge, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = Edge{ID: e.ID, Type: e.Type, Source: e.Source, Target: e.Target, Properties: valueProperties(e.Properties)}
	}

	s.BulkLoad(nodes, edges, doc.NextNodeID, doc.NextEdgeID)
	textSnapshotLog.WithFields(logrus.Fields{
		"file": filename, "nodes": len(nodes), "edges": len(edges),
	}).Info("text snapshot loaded")
	return nil
}

func nativeProperties(props map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v.ToNative()
	}
	return out
}

func valueProperties(props map[string]interface{}) map[string]Value {
	out := make(map[string]Value, len(props))
	for k, v := range props {
		out[k] = nativeToValue(v)
	}
	return out
}

// nativeToValue converts a plain Go value (as produced by yaml.v3
// unmarshaling into interface{}) back into a Value.
func nativeToValue(v interface{}) Value {
	switch n := v.(type) {
	case nil:
		return Null
	case bool:
		return BoolValue(n)
	case int:
		return IntValue(int64(n))
	case int64:
		return IntValue(n)
	case float64:
		return FloatValue(n)
	case string:
		return StringValue(n)
	case []interface{}:
		out := make([]Value, len(n))
		for i, e := range n {
			out[i] = nativeToValue(e)
		}
		return ListValue(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(n))
		for k, e := range n {
			out[k] = nativeToValue(e)
		}
		return MapValue(out)
	default:
		return StringValue(fmt.Sprintf("%v", n))
	}
}
