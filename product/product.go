package product

import (
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/query"
)

// State is a product state: a marking of the net and a state of the automaton.
type State struct {
	Marking petri.Marking
	Buchi   uint32
}

func (s State) Copy() State {
	return State{Marking: s.Marking.Copy(), Buchi: s.Buchi}
}

// Successors enumerates the net successors of a marking. It is implemented by the plain and the
// reducing generators.
type Successors interface {
	Prepare(parent petri.Marking)
	Next(out petri.Marking) bool
	Fired() []uint32
}

// Generator enumerates the successors of product states. For each net successor it lazily walks the
// automaton edges of the parent state whose guards hold on the successor marking.
type Generator struct {
	net    *petri.Net
	aut    *buchi.Automaton
	succ   Successors
	cursor *buchi.Cursor
	ctx    query.EvaluationContext
	parent uint32
	// fresh is set when the current net successor has no automaton edges left
	fresh bool
}

func NewGenerator(n *petri.Net, aut *buchi.Automaton, succ Successors) *Generator {
	return &Generator{
		net:    n,
		aut:    aut,
		succ:   succ,
		cursor: aut.Cursor(),
		ctx:    query.EvaluationContext{Net: n},
	}
}

func (g *Generator) Automaton() *buchi.Automaton { return g.aut }

func (g *Generator) Net() *petri.Net { return g.net }

// InitialStates returns the product states reached from m by the initial edges of the automaton whose
// guards hold on m.
func (g *Generator) InitialStates(m petri.Marking) []State {
	g.ctx.Marking = m
	g.cursor.Reset(g.aut.Initial)
	var states []State
	for {
		e, ok := g.cursor.Next(&g.ctx)
		if !ok {
			return states
		}
		states = append(states, State{Marking: m.Copy(), Buchi: e.Dest})
	}
}

// Prepare starts the enumeration of the successors of s. The parent marking is copied by the net
// generator, so s may be used as the scratch state passed to Next.
func (g *Generator) Prepare(s *State) {
	g.succ.Prepare(s.Marking)
	g.parent = s.Buchi
	g.fresh = true
}

// Next overwrites s with the next product successor. It returns false when there are none left, in
// which case s is unspecified.
func (g *Generator) Next(s *State) bool {
	for {
		if g.fresh {
			if !g.succ.Next(s.Marking) {
				return false
			}
			g.ctx.Marking = s.Marking
			g.cursor.Reset(g.parent)
			g.fresh = false
		}
		if e, ok := g.cursor.Next(&g.ctx); ok {
			s.Buchi = e.Dest
			return true
		}
		g.fresh = true
	}
}

// Fired returns the net move of the last successor.
func (g *Generator) Fired() []uint32 {
	return g.succ.Fired()
}

func (g *Generator) IsAccepting(s State) bool {
	return g.aut.IsAccepting(s.Buchi)
}
