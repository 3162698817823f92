package stubborn

import (
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/analysis"
	"github.com/jt05610/petri/query"
)

// Generator enumerates a stubborn subset of the enabled transitions of a marking. The subset is closed
// under conflict and enabling dependencies, contains every visible transition once it contains an
// enabled visible one, and is the full enabled set whenever it would contain an enabled sticky
// transition or an enabled visible one. A reduced set therefore fires invisible transitions only. Every cycle of the structure fires a sticky transition, so no cycle of the reduced state
// space postpones an enabled transition forever.
type Generator struct {
	net     *petri.Net
	st      *analysis.Structure
	visible []bool

	parent  petri.Marking
	enabled []bool
	list    []uint32
	set     []uint32
	pos     int
	fired   []uint32

	mark    []uint32
	gen     uint32
	queue   []uint32
	best    []uint32
	reduced int
}

// New returns a reducing generator for a single trace. atoms are the atomic propositions the automaton
// observes; the transitions that can change any of them are visible.
func New(n *petri.Net, st *analysis.Structure, atoms []query.Condition) *Generator {
	return &Generator{
		net:     n,
		st:      st,
		visible: Visible(n, st, atoms),
		enabled: make([]bool, n.NumTransitions()),
		fired:   make([]uint32, 1),
		mark:    make([]uint32, n.NumTransitions()),
	}
}

// Reduced is the number of prepared markings whose stubborn set was smaller than the enabled set.
func (g *Generator) Reduced() int { return g.reduced }

func (g *Generator) Prepare(parent petri.Marking) {
	if cap(g.parent) < len(parent) {
		g.parent = make(petri.Marking, len(parent))
	}
	g.parent = g.parent[:len(parent)]
	copy(g.parent, parent)
	g.list = g.list[:0]
	for t := range g.enabled {
		g.enabled[t] = g.net.Enabled(g.parent, uint32(t))
		if g.enabled[t] {
			g.list = append(g.list, uint32(t))
		}
	}
	g.pos = 0
	switch len(g.list) {
	case 0:
		g.set = append(g.set[:0], petri.Deadlock)
		return
	case 1:
		g.set = append(g.set[:0], g.list...)
		return
	}
	g.best = g.best[:0]
	found := false
	for _, seed := range g.list {
		members, ok := g.closure(seed)
		if !ok || g.showsVisible(members) {
			continue
		}
		if !found || len(members) < len(g.best) {
			g.best = append(g.best[:0], members...)
			found = true
		}
		if len(g.best) == 1 {
			break
		}
	}
	if !found {
		g.set = append(g.set[:0], g.list...)
		return
	}
	g.set = append(g.set[:0], g.best...)
	if len(g.set) < len(g.list) {
		g.reduced++
	}
}

// showsVisible reports whether members holds an enabled visible transition. Such a set may only be
// explored when it is the whole enabled set.
func (g *Generator) showsVisible(members []uint32) bool {
	for _, t := range members {
		if g.visible[t] {
			return true
		}
	}
	return false
}

func (g *Generator) Next(out petri.Marking) bool {
	if g.pos >= len(g.set) {
		return false
	}
	t := g.set[g.pos]
	g.pos++
	g.fired[0] = t
	if t == petri.Deadlock {
		copy(out, g.parent)
		return true
	}
	g.net.Fire(g.parent, t, out)
	return true
}

func (g *Generator) Fired() []uint32 { return g.fired }

// Set returns the stubborn transitions of the prepared marking.
func (g *Generator) Set() []uint32 { return g.set }

func (g *Generator) push(t uint32) {
	if g.mark[t] == g.gen {
		return
	}
	g.mark[t] = g.gen
	g.queue = append(g.queue, t)
}

func (g *Generator) in(t uint32) bool { return g.mark[t] == g.gen }

// closure computes the stubborn set grown from seed and returns its enabled members. It reports false
// when the set contains an enabled sticky transition and the marking must be fully expanded.
func (g *Generator) closure(seed uint32) ([]uint32, bool) {
	g.gen++
	if g.gen == 0 {
		clear(g.mark)
		g.gen = 1
	}
	g.queue = g.queue[:0]
	g.push(seed)
	visibleAdded := false
	for len(g.queue) > 0 {
		t := g.queue[len(g.queue)-1]
		g.queue = g.queue[:len(g.queue)-1]
		if !g.enabled[t] {
			g.scapegoat(t)
			continue
		}
		if g.st.Sticky[t] {
			return nil, false
		}
		if g.visible[t] && !visibleAdded {
			visibleAdded = true
			for v, vis := range g.visible {
				if vis {
					g.push(uint32(v))
				}
			}
		}
		g.dependencies(t)
	}
	var members []uint32
	for _, t := range g.list {
		if g.in(t) {
			members = append(members, t)
		}
	}
	return members, true
}

// dependencies adds the transitions that can disable the enabled transition t or be disabled by it.
func (g *Generator) dependencies(t uint32) {
	for _, w := range g.net.Preset(t) {
		if effect(g.net, t, w.Place) < 0 {
			for _, c := range g.net.Consumers(w.Place) {
				g.push(c.Place)
			}
		}
		for _, d := range g.st.Decreasing[w.Place] {
			g.push(d)
		}
	}
	for _, w := range g.net.Inhibitors(t) {
		for _, i := range g.st.Increasing[w.Place] {
			g.push(i)
		}
	}
	for _, w := range g.net.Postset(t) {
		if effect(g.net, t, w.Place) > 0 {
			for _, c := range g.net.Inhibits(w.Place) {
				g.push(c.Place)
			}
		}
	}
}

// scapegoat adds the transitions that can remove one reason why t is disabled, choosing the reason that
// adds the fewest new transitions.
func (g *Generator) scapegoat(t uint32) {
	var best []uint32
	bestCost := -1
	consider := func(candidates []uint32) {
		cost := 0
		for _, c := range candidates {
			if !g.in(c) {
				cost++
			}
		}
		if bestCost < 0 || cost < bestCost {
			best, bestCost = candidates, cost
		}
	}
	for _, w := range g.net.Preset(t) {
		if g.parent[w.Place] < w.Weight {
			consider(g.st.Increasing[w.Place])
		}
	}
	for _, w := range g.net.Inhibitors(t) {
		if g.parent[w.Place] >= w.Weight {
			consider(g.st.Decreasing[w.Place])
		}
	}
	for _, c := range best {
		g.push(c)
	}
}

// effect is the change in tokens of place p when t fires.
func effect(n *petri.Net, t, p uint32) int {
	d := 0
	for _, w := range n.Preset(t) {
		if w.Place == p {
			d -= int(w.Weight)
		}
	}
	for _, w := range n.Postset(t) {
		if w.Place == p {
			d += int(w.Weight)
		}
	}
	return d
}
