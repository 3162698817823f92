package marked_test

import (
	"fmt"
	"testing"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/marked"
	"github.com/stretchr/testify/assert"
)

func door() *petri.Net {
	closed := petri.NewPlace("closed", 1)
	opened := petri.NewPlace("opened", 0)
	open := petri.NewTransition("open")
	shut := petri.NewTransition("close")
	n := petri.NewNet("door").
		WithPlaces(closed, opened).
		WithTransitions(open, shut).
		WithArcs(
			petri.NewArc(closed, open, 1),
			petri.NewArc(open, opened, 1),
			petri.NewArc(opened, shut, 1),
			petri.NewArc(shut, closed, 1),
		)
	if err := n.Compile(); err != nil {
		panic(err)
	}
	return n
}

func ExampleGenerator() {
	n := door()
	gen := marked.New(n, 1)
	m := n.InitialMarking()
	for step := 0; step < 3; step++ {
		gen.Prepare(m)
		if !gen.Next(m) {
			break
		}
		fmt.Printf("fired %s: %s\n", n.TransitionName(gen.Fired()[0]), n.Format(m))
	}
	// Output:
	// fired open: {opened: 1}
	// fired close: {closed: 1}
	// fired open: {opened: 1}
}

func TestGenerator_Deadlock(t *testing.T) {
	p := petri.NewPlace("p", 1)
	q := petri.NewPlace("q", 0)
	move := petri.NewTransition("move")
	n := petri.NewNet("once").WithPlaces(p, q).WithTransitions(move).WithArcs(
		petri.NewArc(p, move, 1),
		petri.NewArc(move, q, 1),
	)
	gen := marked.New(n, 1)
	out := make(petri.Marking, 2)
	gen.Prepare(petri.Marking{0, 1})
	assert.True(t, gen.Deadlocked())
	assert.True(t, gen.Next(out))
	assert.Equal(t, []uint32{petri.Deadlock}, gen.Fired())
	assert.Equal(t, petri.Marking{0, 1}, out)
	assert.False(t, gen.Next(out))
}

func TestGenerator_ReusesParentBuffer(t *testing.T) {
	n := door()
	gen := marked.New(n, 1)
	m := n.InitialMarking()
	gen.Prepare(m)
	assert.True(t, gen.Next(m))
	assert.Equal(t, petri.Marking{0, 1}, m)
	assert.False(t, gen.Next(m), "the only successor was produced from the copied parent")
}

func TestGenerator_Traces(t *testing.T) {
	n := door()
	gen := marked.New(n, 2)
	parent := petri.Marking{1, 0, 0, 1}
	gen.Prepare(parent)
	out := make(petri.Marking, 4)
	var moves [][]uint32
	var succ []petri.Marking
	for gen.Next(out) {
		moves = append(moves, append([]uint32(nil), gen.Fired()...))
		succ = append(succ, out.Copy())
	}
	assert.Equal(t, [][]uint32{{0, 1}}, moves)
	assert.Equal(t, []petri.Marking{{0, 1, 1, 0}}, succ)
}

func TestGenerator_TracesStutter(t *testing.T) {
	p := petri.NewPlace("p", 1)
	a := petri.NewTransition("a")
	b := petri.NewTransition("b")
	n := petri.NewNet("choice").WithPlaces(p).WithTransitions(a, b).WithArcs(
		petri.NewArc(p, a, 1),
		petri.NewArc(p, b, 1),
	)
	gen := marked.New(n, 2)
	gen.Prepare(petri.Marking{1, 0})
	out := make(petri.Marking, 2)
	var moves [][]uint32
	for gen.Next(out) {
		moves = append(moves, append([]uint32(nil), gen.Fired()...))
	}
	assert.Equal(t, [][]uint32{{0, petri.Deadlock}, {1, petri.Deadlock}}, moves)
}
