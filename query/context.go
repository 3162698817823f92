package query

import (
	"github.com/jt05610/petri"
)

// EvaluationContext binds a condition to a marking of a net. For HyperLTL the marking holds one copy of
// the net per trace.
type EvaluationContext struct {
	Net     *petri.Net
	Marking petri.Marking
}

func NewEvaluationContext(n *petri.Net, m petri.Marking) *EvaluationContext {
	return &EvaluationContext{Net: n, Marking: m}
}

// Trace returns the part of the marking belonging to trace i.
func (c *EvaluationContext) Trace(i uint32) petri.Marking {
	np := uint32(c.Net.NumPlaces())
	return c.Marking[i*np : (i+1)*np]
}

func (c *EvaluationContext) Tokens(place, trace uint32) uint32 {
	return c.Marking[trace*uint32(c.Net.NumPlaces())+place]
}

// Deadlocked reports whether trace i has no enabled transition.
func (c *EvaluationContext) Deadlocked(i uint32) bool {
	m := c.Trace(i)
	for t := 0; t < c.Net.NumTransitions(); t++ {
		if c.Net.Enabled(m, uint32(t)) {
			return false
		}
	}
	return true
}

// DistanceContext estimates how far a marking is from satisfying a condition. Under negation the
// distance is towards falsifying it.
type DistanceContext struct {
	EvaluationContext
	negated bool
}

func NewDistanceContext(n *petri.Net, m petri.Marking) *DistanceContext {
	return &DistanceContext{EvaluationContext: EvaluationContext{Net: n, Marking: m}}
}

func (c *DistanceContext) Negate() {
	c.negated = !c.negated
}

func (c *DistanceContext) Negated() bool {
	return c.negated
}
