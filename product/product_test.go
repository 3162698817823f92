package product_test

import (
	"testing"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/marked"
	"github.com/jt05610/petri/product"
	"github.com/jt05610/petri/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// choice: from p either a moves the token to q or b moves it to r.
func choice() *petri.Net {
	p, q, r := petri.NewPlace("p", 1), petri.NewPlace("q", 0), petri.NewPlace("r", 0)
	a, b := petri.NewTransition("a"), petri.NewTransition("b")
	n := petri.NewNet("choice").WithPlaces(p, q, r).WithTransitions(a, b).WithArcs(
		petri.NewArc(p, a, 1), petri.NewArc(a, q, 1),
		petri.NewArc(p, b, 1), petri.NewArc(b, r, 1),
	)
	if err := n.Compile(); err != nil {
		panic(err)
	}
	return n
}

// automaton with state 0 looping on true and moving to accepting state 1 when q is marked.
func automaton(t *testing.T, n *petri.Net) *buchi.Automaton {
	a := buchi.New(2)
	g, err := a.ParseGuard(query.NewParser(n, nil), "q > 0")
	require.NoError(t, err)
	require.NoError(t, a.AddEdge(0, 0, buchi.True))
	require.NoError(t, a.AddEdge(0, 1, g))
	require.NoError(t, a.AddEdge(1, 1, buchi.True))
	require.NoError(t, a.SetAccepting(1))
	return a
}

func TestGenerator(t *testing.T) {
	n := choice()
	aut := automaton(t, n)
	gen := product.NewGenerator(n, aut, marked.New(n, 1))

	initial := gen.InitialStates(n.InitialMarking())
	require.Len(t, initial, 1)
	assert.Equal(t, uint32(0), initial[0].Buchi)
	assert.False(t, gen.IsAccepting(initial[0]))

	type succ struct {
		fired uint32
		state product.State
	}
	var got []succ
	s := initial[0].Copy()
	gen.Prepare(&s)
	for gen.Next(&s) {
		got = append(got, succ{fired: gen.Fired()[0], state: s.Copy()})
	}
	assert.Equal(t, []succ{
		{0, product.State{Marking: petri.Marking{0, 1, 0}, Buchi: 0}},
		{0, product.State{Marking: petri.Marking{0, 1, 0}, Buchi: 1}},
		{1, product.State{Marking: petri.Marking{0, 0, 1}, Buchi: 0}},
	}, got)
	assert.True(t, gen.IsAccepting(got[1].state))
}

func TestGenerator_DeadlockStutters(t *testing.T) {
	n := choice()
	aut := automaton(t, n)
	gen := product.NewGenerator(n, aut, marked.New(n, 1))
	s := product.State{Marking: petri.Marking{0, 1, 0}, Buchi: 1}
	gen.Prepare(&s)
	require.True(t, gen.Next(&s))
	assert.Equal(t, []uint32{petri.Deadlock}, gen.Fired())
	assert.Equal(t, product.State{Marking: petri.Marking{0, 1, 0}, Buchi: 1}, s)
	assert.False(t, gen.Next(&s))
}

func TestGenerator_NoEdges(t *testing.T) {
	n := choice()
	aut := buchi.New(1)
	gen := product.NewGenerator(n, aut, marked.New(n, 1))
	assert.Empty(t, gen.InitialStates(n.InitialMarking()))
	s := product.State{Marking: n.InitialMarking()}
	gen.Prepare(&s)
	assert.False(t, gen.Next(&s), "a state without edges has no product successors")
}
