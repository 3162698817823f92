package petri

import "math"

var _ Node = (*Transition)(nil)

// Deadlock is the transition index reported for the stuttering step taken at a marking without enabled
// transitions.
const Deadlock = math.MaxUint32 - 1

// Transition represents a transition
type Transition struct {
	ID   string
	Name string
}

func (t *Transition) IsNode() {}

func (t *Transition) String() string {
	return t.Name
}

func (t *Transition) Kind() Kind { return TransitionObject }

func (t *Transition) Identifier() string { return t.ID }

func NewTransition(name string) *Transition {
	return &Transition{
		ID:   ID(),
		Name: name,
	}
}
