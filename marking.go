package petri

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Marking is the number of tokens in each place, indexed by place.
type Marking []uint32

func (m Marking) Copy() Marking {
	c := make(Marking, len(m))
	copy(c, m)
	return c
}

func (m Marking) Equal(other Marking) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// AppendEncoded appends the canonical encoding of m to b. Equal markings produce equal encodings.
func (m Marking) AppendEncoded(b []byte) []byte {
	for _, v := range m {
		b = binary.AppendUvarint(b, uint64(v))
	}
	return b
}

// DecodeMarking reverses AppendEncoded for a marking of size places and returns the unread rest of b.
func DecodeMarking(b []byte, size int) (Marking, []byte, error) {
	m := make(Marking, size)
	for i := range m {
		v, n := binary.Uvarint(b)
		if n <= 0 {
			return nil, b, fmt.Errorf("marking: truncated encoding at place %d", i)
		}
		m[i] = uint32(v)
		b = b[n:]
	}
	return m, b, nil
}

// Format renders the non-empty places of m by name.
func (n *Net) Format(m Marking) string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for i, v := range m {
		if v == 0 {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		var name string
		switch np := len(n.Places); {
		case len(m) == np:
			name = n.Places[i].Name
		case np > 0:
			name = fmt.Sprintf("%s[%d]", n.Places[i%np].Name, i/np)
		default:
			name = fmt.Sprintf("p%d", i)
		}
		fmt.Fprintf(&sb, "%s: %d", name, v)
	}
	sb.WriteString("}")
	return sb.String()
}
