package graphdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// recordVersion tags the on-disk encoding so a future format change
// can be detected instead of silently misparsed.
const recordVersion byte = 2

const (
	recKindNode byte = 'N'
	recKindEdge byte = 'E'
)

// SerializeNode encodes a Node into the binary record format used by
// the snapshot codec, generalized from the teacher's utils.go
// Serialize (which only handled int64/string/bool properties) to the
// full six-variant Value union.
func SerializeNode(n Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(recordVersion)
	buf.WriteByte(recKindNode)
	if err := binary.Write(&buf, binary.BigEndian, n.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := writeStringSlice(&buf, n.Labels); err != nil {
		return nil, err
	}
	if err := writeProperties(&buf, n.Properties); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeNode decodes a Node previously written by SerializeNode.
func DeserializeNode(data []byte) (Node, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if version != recordVersion {
		return Node{}, fmt.Errorf("%w: unsupported record version %d", ErrIO, version)
	}
	kind, err := r.ReadByte()
	if err != nil || kind != recKindNode {
		return Node{}, fmt.Errorf("%w: expected node record", ErrIO)
	}
	var id int64
	if err := binary.Read(r, binary.BigEndian, &id); err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	labels, err := readStringSlice(r)
	if err != nil {
		return Node{}, err
	}
	props, err := readProperties(r)
	if err != nil {
		return Node{}, err
	}
	return Node{ID: id, Labels: labels, Properties: props}, nil
}

// SerializeEdge encodes an Edge into the binary record format.
func SerializeEdge(e Edge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(recordVersion)
	buf.WriteByte(recKindEdge)
	if err := binary.Write(&buf, binary.BigEndian, e.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := writeString(&buf, e.Type); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, e.Source); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := binary.Write(&buf, binary.BigEndian, e.Target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := writeProperties(&buf, e.Properties); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeEdge decodes an Edge previously written by SerializeEdge.
func DeserializeEdge(data []byte) (Edge, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return Edge{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if version != recordVersion {
		return Edge{}, fmt.Errorf("%w: unsupported record version %d", ErrIO, version)
	}
	kind, err := r.ReadByte()
	if err != nil || kind != recKindEdge {
		return Edge{}, fmt.Errorf("%w: expected edge record", ErrIO)
	}
	var id int64
	if err := binary.Read(r, binary.BigEndian, &id); err != nil {
		return Edge{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	typ, err := readString(r)
	if err != nil {
		return Edge{}, err
	}
	var src, dst int64
	if err := binary.Read(r, binary.BigEndian, &src); err != nil {
		return Edge{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := binary.Read(r, binary.BigEndian, &dst); err != nil {
		return Edge{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	props, err := readProperties(r)
	if err != nil {
		return Edge{}, err
	}
	return Edge{ID: id, Type: typ, Source: src, Target: dst, Properties: props}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	return string(b), nil
}

func writeStringSlice(buf *bytes.Buffer, ss []string) error {
	if err := binary.Write(buf, binary.BigEndian, uint16(len(ss))); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	for _, s := range ss {
		if err := writeString(buf, s); err != nil {
			return err
		}
	}
	return nil
}

func readStringSlice(r *bytes.Reader) ([]string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	out := make([]string, n)
	for i := range out {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func writeProperties(buf *bytes.Buffer, props map[string]Value) error {
	if err := binary.Write(buf, binary.BigEndian, uint16(len(props))); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	for k, v := range props {
		if err := writeString(buf, k); err != nil {
			return err
		}
		if err := writeValue(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func readProperties(r *bytes.Reader) (map[string]Value, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	out := make(map[string]Value, n)
	for i := uint16(0); i < n; i++ {
		k, err := readString(r)
		if err != nil {
			return nil, err
		}
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	if err := buf.WriteByte(byte(v.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return buf.WriteByte(btoi(v.Bool))
	case KindInt:
		return binary.Write(buf, binary.BigEndian, v.Int)
	case KindFloat:
		return binary.Write(buf, binary.BigEndian, v.Float)
	case KindString:
		return writeString(buf, v.Str)
	case KindList:
		if err := binary.Write(buf, binary.BigEndian, uint32(len(v.List))); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		for _, e := range v.List {
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := binary.Write(buf, binary.BigEndian, uint32(len(v.Map))); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		for k, e := range v.Map {
			if err := writeString(buf, k); err != nil {
				return err
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown value kind %d", ErrIO, v.Kind)
	}
}

func readValue(r *bytes.Reader) (Value, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Null, fmt.Errorf("%w: %v", ErrIO, err)
	}
	kind := ValueKind(kindByte)
	switch kind {
	case KindNull:
		return Null, nil
	case KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return Null, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return BoolValue(b != 0), nil
	case KindInt:
		var i int64
		if err := binary.Read(r, binary.BigEndian, &i); err != nil {
			return Null, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return IntValue(i), nil
	case KindFloat:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return Null, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return FloatValue(f), nil
	case KindString:
		s, err := readString(r)
		if err != nil {
			return Null, err
		}
		return StringValue(s), nil
	case KindList:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Null, fmt.Errorf("%w: %v", ErrIO, err)
		}
		out := make([]Value, n)
		for i := range out {
			v, err := readValue(r)
			if err != nil {
				return Null, err
			}
			out[i] = v
		}
		return ListValue(out), nil
	case KindMap:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Null, fmt.Errorf("%w: %v", ErrIO, err)
		}
		out := make(map[string]Value, n)
		for i := uint32(0); i < n; i++ {
			k, err := readString(r)
			if err != nil {
				return Null, err
			}
			v, err := readValue(r)
			if err != nil {
				return Null, err
			}
			out[k] = v
		}
		return MapValue(out), nil
	default:
		return Null, fmt.Errorf("%w: unknown value kind %d", ErrIO, kindByte)
	}
}

func btoi(b bool) byte {
	if b {
		return 1
	}
	return 0
}
