package petri_test

import (
	"fmt"
	"testing"

	"github.com/jt05610/petri"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleAdd() {
	a, c := petri.NewPlace("a", 1), petri.NewPlace("c", 0)
	b := petri.NewTransition("b")
	n1 := petri.NewNet("n1").WithPlaces(a, c).WithTransitions(b).WithArcs(
		petri.NewArc(a, b, 1), petri.NewArc(b, c, 1),
	)
	d, c2 := petri.NewPlace("d", 1), petri.NewPlace("c", 0)
	b2 := petri.NewTransition("b")
	n2 := petri.NewNet("n2").WithPlaces(d, c2).WithTransitions(b2).WithArcs(
		petri.NewArc(d, b2, 1), petri.NewArc(b2, c2, 1),
	)
	combined := petri.Add("combined", n1, n2)
	fmt.Println("Places")
	for i, place := range combined.Places {
		fmt.Printf("%d. %s\n", i+1, place.Name)
	}
	fmt.Println("Arcs")
	for _, arc := range combined.Arcs {
		fmt.Println(arc)
	}
	// Output:
	// Places
	// 1. a
	// 2. c
	// 3. d
	// Arcs
	// a -> b
	// b -> c
	// d -> b
}

func TestAdd_SharedTransitionSynchronises(t *testing.T) {
	p, q := petri.NewPlace("p", 1), petri.NewPlace("q", 0)
	go1 := petri.NewTransition("go")
	left := petri.NewNet("left").WithPlaces(p, q).WithTransitions(go1).WithArcs(
		petri.NewArc(p, go1, 1), petri.NewArc(go1, q, 1),
	)
	r, s := petri.NewPlace("r", 0), petri.NewPlace("s", 0)
	go2 := petri.NewTransition("go")
	right := petri.NewNet("right").WithPlaces(r, s).WithTransitions(go2).WithArcs(
		petri.NewArc(r, go2, 1), petri.NewArc(go2, s, 1), petri.NewInhibitor(s, go2, 2),
	)
	n := petri.Add("both", left, right)
	require.NoError(t, n.Compile())
	assert.Len(t, n.Transitions, 1)
	assert.Len(t, n.Arcs, 5)
	m := n.InitialMarking()
	assert.False(t, n.Enabled(m, 0), "r holds no token")
	m[2] = 1
	require.True(t, n.Enabled(m, 0))
	assert.Equal(t, petri.Marking{0, 1, 0, 1}, n.Fire(m, 0, make(petri.Marking, 4)))
}
