package graphdb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// IndexManager maps node/edge ids to the page where their record
// starts in a snapshot file, ported from the teacher's index.go
// (nodeIndex/edgeIndex over in-memory page numbers). Where the
// teacher kept this live for the whole process, here it is built
// while writing a SaveBinary snapshot and persisted as the file's
// trailer so LoadBinary (or a future random-access reader) doesn't
// need to rescan every page to find a given id.
type IndexManager struct {
	nodeIndex map[int64]int
	edgeIndex map[int64]int
	log       *logrus.Entry
}

// NewIndexManager builds an empty IndexManager.
func NewIndexManager() *IndexManager {
	return &IndexManager{
		nodeIndex: make(map[int64]int),
		edgeIndex: make(map[int64]int),
		log:       logrus.WithField("component", "IndexManager"),
	}
}

func (im *IndexManager) InsertNode(id int64, page int) { im.nodeIndex[id] = page }
func (im *IndexManager) InsertEdge(id int64, page int) { im.edgeIndex[id] = page }

func (im *IndexManager) SearchNode(id int64) (int, bool) { p, ok := im.nodeIndex[id]; return p, ok }
func (im *IndexManager) SearchEdge(id int64) (int, bool) { p, ok := im.edgeIndex[id]; return p, ok }

func (im *IndexManager) DeleteNode(id int64) { delete(im.nodeIndex, id) }
func (im *IndexManager) DeleteEdge(id int64) { delete(im.edgeIndex, id) }

// NodeIDs returns every indexed node id.
func (im *IndexManager) NodeIDs() []int64 {
	out := make([]int64, 0, len(im.nodeIndex))
	for id := range im.nodeIndex {
		out = append(out, id)
	}
	return out
}

// GetEdgeIDs returns every indexed edge id.
func (im *IndexManager) GetEdgeIDs() []int64 {
	out := make([]int64, 0, len(im.edgeIndex))
	for id := range im.edgeIndex {
		out = append(out, id)
	}
	return out
}

// trailer is the final record of a snapshot file: the id counters and
// both indexes, letting a loader discover every record's page without
// scanning.
type trailer struct {
	nextNodeID int64
	nextEdgeID int64
	nodeIndex  map[int64]int
	edgeIndex  map[int64]int
}

func encodeTrailer(t trailer) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, t.nextNodeID)
	binary.Write(&buf, binary.BigEndian, t.nextEdgeID)
	binary.Write(&buf, binary.BigEndian, uint32(len(t.nodeIndex)))
	for id, page := range t.nodeIndex {
		binary.Write(&buf, binary.BigEndian, id)
		binary.Write(&buf, binary.BigEndian, uint32(page))
	}
	binary.Write(&buf, binary.BigEndian, uint32(len(t.edgeIndex)))
	for id, page := range t.edgeIndex {
		binary.Write(&buf, binary.BigEndian, id)
		binary.Write(&buf, binary.BigEndian, uint32(page))
	}
	return buf.Bytes()
}

func decodeTrailer(data []byte) (trailer, error) {
	r := bytes.NewReader(data)
	var t trailer
	if err := binary.Read(r, binary.BigEndian, &t.nextNodeID); err != nil {
		return t, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := binary.Read(r, binary.BigEndian, &t.nextEdgeID); err != nil {
		return t, fmt.Errorf("%w: %v", ErrIO, err)
	}
	var nodeCount uint32
	if err := binary.Read(r, binary.BigEndian, &nodeCount); err != nil {
		return t, fmt.Errorf("%w: %v", ErrIO, err)
	}
	t.nodeIndex = make(map[int64]int, nodeCount)
	for i := uint32(0); i < nodeCount; i++ {
		var id int64
		var page uint32
		if err := binary.Read(r, binary.BigEndian, &id); err != nil {
			return t, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if err := binary.Read(r, binary.BigEndian, &page); err != nil {
			return t, fmt.Errorf("%w: %v", ErrIO, err)
		}
		t.nodeIndex[id] = int(page)
	}
	var edgeCount uint32
	if err := binary.Read(r, binary.BigEndian, &edgeCount); err != nil {
		return t, fmt.Errorf("%w: %v", ErrIO, err)
	}
	t.edgeIndex = make(map[int64]int, edgeCount)
	for i := uint32(0); i < edgeCount; i++ {
		var id int64
		var page uint32
		if err := binary.Read(r, binary.BigEndian, &id); err != nil {
			return t, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if err := binary.Read(r, binary.BigEndian, &page); err != nil {
			return t, fmt.Errorf("%w: %v", ErrIO, err)
		}
		t.edgeIndex[id] = int(page)
	}
	return t, nil
}
