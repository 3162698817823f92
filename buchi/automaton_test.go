package buchi_test

import (
	"bytes"
	"testing"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() *petri.Net {
	p := petri.NewPlace("p", 0)
	q := petri.NewPlace("q", 1)
	inc := petri.NewTransition("inc")
	n := petri.NewNet("counter").WithPlaces(p, q).WithTransitions(inc).WithArcs(
		petri.NewArc(q, inc, 1),
		petri.NewArc(inc, p, 1),
		petri.NewArc(inc, q, 1),
	)
	if err := n.Compile(); err != nil {
		panic(err)
	}
	return n
}

// eventually builds the automaton for F(p >= 2).
func eventually(t *testing.T, n *petri.Net) *buchi.Automaton {
	a := buchi.New(2)
	parser := query.NewParser(n, map[string]string{"goal": "p >= 2"})
	notGoal, err := a.ParseGuard(parser, "!goal")
	require.NoError(t, err)
	goal, err := a.ParseGuard(parser, "goal")
	require.NoError(t, err)
	require.NoError(t, a.AddEdge(0, 0, notGoal))
	require.NoError(t, a.AddEdge(0, 1, goal))
	require.NoError(t, a.AddEdge(1, 1, buchi.True))
	require.NoError(t, a.SetAccepting(1))
	return a
}

func TestGuards(t *testing.T) {
	g := buchi.NewGuards()
	x, y := g.Prop(0), g.Prop(1)
	assert.Equal(t, x, g.Prop(0), "nodes are shared")
	assert.Equal(t, buchi.False, g.And(x, g.Not(x)))
	assert.Equal(t, buchi.True, g.Or(x, g.Not(x)))
	assert.Equal(t, g.And(x, y), g.And(y, x))
	assert.Equal(t, g.Not(g.And(x, y)), g.Or(g.Not(x), g.Not(y)))
	assert.ElementsMatch(t, []uint32{0, 1}, g.Support(g.Or(x, y)))
	assert.Equal(t, x, g.Var(3, x, x), "redundant tests are removed")
}

func TestAutomaton_Eval(t *testing.T) {
	n := counter()
	a := eventually(t, n)
	cursor := a.Cursor()
	ctx := query.NewEvaluationContext(n, petri.Marking{0, 1})

	cursor.Reset(0)
	e, ok := cursor.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, uint32(0), e.Dest)
	_, ok = cursor.Next(ctx)
	assert.False(t, ok)

	ctx.Marking = petri.Marking{2, 1}
	cursor.Reset(0)
	e, ok = cursor.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Dest)
	for i := 0; i < 3; i++ {
		assert.True(t, a.Eval(a.Edges(0)[1].Guard, ctx), "guard evaluation is idempotent")
	}
}

func TestAutomaton_GuardUnknown(t *testing.T) {
	n := counter()
	a := buchi.New(1)
	a.Props = append(a.Props, buchi.Proposition{Name: "G(p)", Cond: query.G(query.True)})
	guard := a.Guards.Prop(0)
	ctx := query.NewEvaluationContext(n, n.InitialMarking())
	assert.PanicsWithError(t, "G(p): atomic proposition evaluated to unknown in a guard", func() {
		a.Eval(guard, ctx)
	})

	_, err := a.Guard(query.F(query.True))
	assert.ErrorIs(t, err, buchi.ErrTemporalGuard)
}

func TestAutomaton_Structure(t *testing.T) {
	n := counter()
	a := eventually(t, n)
	assert.True(t, a.IsWeak())
	assert.Equal(t, []uint32{1, 0}, a.AcceptDistances())

	// a state alternating between accepting and rejecting is not weak
	b := buchi.New(3)
	require.NoError(t, b.AddEdge(0, 1, buchi.True))
	require.NoError(t, b.AddEdge(1, 0, buchi.True))
	require.NoError(t, b.SetAccepting(1))
	assert.False(t, b.IsWeak())
	assert.Equal(t, uint32(buchi.Unreachable), b.AcceptDistances()[2])
}

func TestAutomaton_GuardDistance(t *testing.T) {
	n := counter()
	a := eventually(t, n)
	ctx := query.NewDistanceContext(n, petri.Marking{0, 1})
	goal := a.Edges(0)[1].Guard
	assert.Equal(t, uint32(2), a.GuardDistance(goal, ctx))
	assert.Equal(t, uint32(0), a.GuardDistance(a.Edges(0)[0].Guard, ctx))
	assert.Equal(t, uint32(0), a.GuardDistance(buchi.True, ctx))
	assert.False(t, ctx.Negated())
}

func TestAutomaton_WriteHOA(t *testing.T) {
	n := counter()
	a := eventually(t, n)
	var buf bytes.Buffer
	require.NoError(t, a.WriteHOA(&buf))
	assert.Equal(t, `HOA: v1
States: 2
Start: 0
AP: 1 "(p >= 2)"
Acceptance: 1 Inf(0)
--BODY--
State: 0
[!(p >= 2)] 0
[(p >= 2)] 1
State: 1 {0}
[true] 1
--END--
`, buf.String())
}

func TestAutomaton_MergesParallelEdges(t *testing.T) {
	n := counter()
	a := buchi.New(2)
	parser := query.NewParser(n, nil)
	low, err := a.ParseGuard(parser, "p < 1")
	require.NoError(t, err)
	high, err := a.ParseGuard(parser, "p > 3")
	require.NoError(t, err)
	require.NoError(t, a.AddEdge(0, 1, low))
	require.NoError(t, a.AddEdge(0, 1, high))
	require.Len(t, a.Edges(0), 1)
	assert.Equal(t, "(p < 1) || (!(p < 1) && (p > 3))", a.GuardString(a.Edges(0)[0].Guard))
	assert.ErrorIs(t, a.AddEdge(0, 5, buchi.True), buchi.ErrNoState)
}
