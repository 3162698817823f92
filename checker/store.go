package checker

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/product"
)

// store interns product states. Each state is kept once in its canonical encoding and identified by
// the order in which it was first added.
type store struct {
	width int
	keys  [][]byte
	buchi []uint32
	index map[uint64][]uint32
	buf   []byte
}

func newStore(width int) *store {
	return &store{width: width, index: make(map[uint64][]uint32)}
}

func (s *store) encode(st product.State) []byte {
	s.buf = st.Marking.AppendEncoded(s.buf[:0])
	s.buf = binary.AppendUvarint(s.buf, uint64(st.Buchi))
	return s.buf
}

func (s *store) find(key []byte, h uint64) (uint32, bool) {
	for _, id := range s.index[h] {
		if bytes.Equal(s.keys[id], key) {
			return id, true
		}
	}
	return 0, false
}

// add interns a copy of st and reports whether it was new.
func (s *store) add(st product.State) (uint32, bool) {
	key := s.encode(st)
	h := xxhash.Sum64(key)
	if id, ok := s.find(key, h); ok {
		return id, false
	}
	id := uint32(len(s.keys))
	s.keys = append(s.keys, bytes.Clone(key))
	s.buchi = append(s.buchi, st.Buchi)
	s.index[h] = append(s.index[h], id)
	return id, true
}

// get decodes the state with the given id into a fresh marking.
func (s *store) get(id uint32) product.State {
	m, rest, err := petri.DecodeMarking(s.keys[id], s.width)
	if err != nil {
		panic(fmt.Errorf("state %d: %w", id, err))
	}
	b, _ := binary.Uvarint(rest)
	return product.State{Marking: m, Buchi: uint32(b)}
}

func (s *store) len() int { return len(s.keys) }
