package marked

import (
	"github.com/jt05610/petri"
)

// Generator enumerates the successors of a marking. With more than one trace the marking holds one copy of
// the net per trace, place p of trace i at offset i*NumPlaces()+p, and every step fires one transition in
// each copy. A copy without enabled transitions stutters with petri.Deadlock.
type Generator struct {
	net    *petri.Net
	traces int
	parent petri.Marking
	// per trace, the candidate moves at the parent marking
	enabled [][]uint32
	cursor  []int
	fired   []uint32
	started bool
	done    bool
}

// New returns a generator over k synchronous copies of n. Traces below one are treated as one.
func New(n *petri.Net, traces int) *Generator {
	if traces < 1 {
		traces = 1
	}
	return &Generator{
		net:     n,
		traces:  traces,
		enabled: make([][]uint32, traces),
		cursor:  make([]int, traces),
		fired:   make([]uint32, traces),
	}
}

func (g *Generator) Net() *petri.Net { return g.net }

func (g *Generator) Traces() int { return g.traces }

// Prepare computes the enabled moves at parent. The parent is copied so the caller may reuse its buffer
// for the successors.
func (g *Generator) Prepare(parent petri.Marking) {
	if cap(g.parent) < len(parent) {
		g.parent = make(petri.Marking, len(parent))
	}
	g.parent = g.parent[:len(parent)]
	copy(g.parent, parent)
	np := g.net.NumPlaces()
	for i := 0; i < g.traces; i++ {
		g.enabled[i] = g.enabled[i][:0]
		m := g.parent[i*np : (i+1)*np]
		for t := 0; t < g.net.NumTransitions(); t++ {
			if g.net.Enabled(m, uint32(t)) {
				g.enabled[i] = append(g.enabled[i], uint32(t))
			}
		}
		if len(g.enabled[i]) == 0 {
			g.enabled[i] = append(g.enabled[i], petri.Deadlock)
		}
		g.cursor[i] = 0
	}
	g.started = false
	g.done = false
}

// Enabled returns the enabled transitions of trace i at the prepared marking. A deadlocked trace returns
// the single petri.Deadlock move.
func (g *Generator) Enabled(i int) []uint32 {
	return g.enabled[i]
}

// Deadlocked reports whether no copy has an enabled transition.
func (g *Generator) Deadlocked() bool {
	for _, en := range g.enabled {
		if len(en) != 1 || en[0] != petri.Deadlock {
			return false
		}
	}
	return true
}

// Next writes the next successor into out and returns false when the successors are exhausted. out must
// have the length of the prepared marking and must not alias a buffer the generator reads from.
func (g *Generator) Next(out petri.Marking) bool {
	if g.done {
		return false
	}
	if g.started && !g.advance() {
		g.done = true
		return false
	}
	g.started = true
	np := g.net.NumPlaces()
	for i := 0; i < g.traces; i++ {
		t := g.enabled[i][g.cursor[i]]
		g.fired[i] = t
		src := g.parent[i*np : (i+1)*np]
		dst := out[i*np : (i+1)*np]
		if t == petri.Deadlock {
			copy(dst, src)
			continue
		}
		g.net.Fire(src, t, dst)
	}
	return true
}

// advance moves the odometer over the per-trace candidate lists.
func (g *Generator) advance() bool {
	for i := g.traces - 1; i >= 0; i-- {
		g.cursor[i]++
		if g.cursor[i] < len(g.enabled[i]) {
			return true
		}
		g.cursor[i] = 0
	}
	return false
}

// Fired returns the move that produced the last successor, one transition per trace. The slice is reused
// by the next call to Next.
func (g *Generator) Fired() []uint32 {
	return g.fired
}
