package stubborn_test

import (
	"testing"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/analysis"
	"github.com/jt05610/petri/query"
	"github.com/jt05610/petri/stubborn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrent has two independent processes a: p1 -> q1 and b: p2 -> q2.
func concurrent() *petri.Net {
	p1, q1 := petri.NewPlace("p1", 1), petri.NewPlace("q1", 0)
	p2, q2 := petri.NewPlace("p2", 1), petri.NewPlace("q2", 0)
	a, b := petri.NewTransition("a"), petri.NewTransition("b")
	return petri.NewNet("concurrent").WithPlaces(p1, q1, p2, q2).WithTransitions(a, b).WithArcs(
		petri.NewArc(p1, a, 1), petri.NewArc(a, q1, 1),
		petri.NewArc(p2, b, 1), petri.NewArc(b, q2, 1),
	)
}

func generator(t *testing.T, n *petri.Net, atoms ...string) *stubborn.Generator {
	st, err := analysis.Analyze(n)
	require.NoError(t, err)
	var conds []query.Condition
	for _, src := range atoms {
		c, err := query.Parse(n, src, nil)
		require.NoError(t, err)
		conds = append(conds, c)
	}
	return stubborn.New(n, st, conds)
}

func successors(g *stubborn.Generator, m petri.Marking) []uint32 {
	g.Prepare(m)
	out := make(petri.Marking, len(m))
	var fired []uint32
	for g.Next(out) {
		fired = append(fired, g.Fired()[0])
	}
	return fired
}

func TestGenerator_Independent(t *testing.T) {
	n := concurrent()
	g := generator(t, n)
	assert.Equal(t, []uint32{0}, successors(g, n.InitialMarking()))
	assert.Equal(t, 1, g.Reduced())
}

func TestGenerator_Conflict(t *testing.T) {
	p, q1, q2 := petri.NewPlace("p", 1), petri.NewPlace("q1", 0), petri.NewPlace("q2", 0)
	a, b := petri.NewTransition("a"), petri.NewTransition("b")
	n := petri.NewNet("conflict").WithPlaces(p, q1, q2).WithTransitions(a, b).WithArcs(
		petri.NewArc(p, a, 1), petri.NewArc(a, q1, 1),
		petri.NewArc(p, b, 1), petri.NewArc(b, q2, 1),
	)
	g := generator(t, n)
	assert.Equal(t, []uint32{0, 1}, successors(g, n.InitialMarking()))
}

func TestGenerator_Visible(t *testing.T) {
	n := concurrent()
	g := generator(t, n, "q1 + q2 == 1")
	assert.Equal(t, []uint32{0, 1}, successors(g, n.InitialMarking()), "both transitions change the proposition")

	g = generator(t, n, "q1 == 1")
	assert.Equal(t, []uint32{1}, successors(g, n.InitialMarking()), "a reduced set fires invisible transitions only")
}

// spinning has an invisible self loop next to a visible transition that is enabled once.
func spinning() *petri.Net {
	p, r, q := petri.NewPlace("p", 1), petri.NewPlace("r", 1), petri.NewPlace("q", 0)
	spin, move := petri.NewTransition("spin"), petri.NewTransition("go")
	return petri.NewNet("spinning").WithPlaces(p, r, q).WithTransitions(spin, move).WithArcs(
		petri.NewArc(p, spin, 1), petri.NewArc(spin, p, 1),
		petri.NewArc(r, move, 1), petri.NewArc(move, q, 1),
	)
}

func TestGenerator_InvisibleDivergence(t *testing.T) {
	n := spinning()
	g := generator(t, n, "q >= 1")
	assert.Equal(t, []uint32{0, 1}, successors(g, n.InitialMarking()), "go alone would hide the spin run")
	assert.Equal(t, 0, g.Reduced())
}

func TestGenerator_Sticky(t *testing.T) {
	p, q := petri.NewPlace("p", 1), petri.NewPlace("q", 0)
	loop, leave := petri.NewTransition("loop"), petri.NewTransition("leave")
	n := petri.NewNet("loop").WithPlaces(p, q).WithTransitions(loop, leave).WithArcs(
		petri.NewArc(p, loop, 1), petri.NewArc(loop, p, 1),
		petri.NewArc(p, leave, 1), petri.NewArc(leave, q, 1),
	)
	g := generator(t, n)
	assert.Equal(t, []uint32{0, 1}, successors(g, n.InitialMarking()))
	assert.Equal(t, 0, g.Reduced())
}

func TestGenerator_DisabledScapegoat(t *testing.T) {
	// a is enabled and consumes from p, which b also needs; b is waiting for r, which c produces
	p, r, s, done := petri.NewPlace("p", 1), petri.NewPlace("r", 0), petri.NewPlace("s", 1), petri.NewPlace("done", 0)
	a, b, c := petri.NewTransition("a"), petri.NewTransition("b"), petri.NewTransition("c")
	n := petri.NewNet("scapegoat").WithPlaces(p, r, s, done).WithTransitions(a, b, c).WithArcs(
		petri.NewArc(p, a, 1), petri.NewArc(a, done, 1),
		petri.NewArc(p, b, 1), petri.NewArc(r, b, 1), petri.NewArc(b, done, 1),
		petri.NewArc(s, c, 1), petri.NewArc(c, r, 1),
	)
	g := generator(t, n)
	assert.Equal(t, []uint32{2}, successors(g, n.InitialMarking()), "c alone is independent of a")

	g.Prepare(n.InitialMarking())
	assert.Equal(t, []uint32{2}, g.Set())
}

func TestGenerator_Deadlock(t *testing.T) {
	n := concurrent()
	g := generator(t, n)
	assert.Equal(t, []uint32{petri.Deadlock}, successors(g, petri.Marking{0, 1, 0, 1}))
}

func TestVisible(t *testing.T) {
	n := concurrent()
	st, err := analysis.Analyze(n)
	require.NoError(t, err)
	c, err := query.Parse(n, "fireable(a)", nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, stubborn.Visible(n, st, []query.Condition{c}))
	d, err := query.Parse(n, "deadlock", nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, stubborn.Visible(n, st, []query.Condition{d}))
}
