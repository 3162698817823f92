package petri

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrSameKind         = errors.New("cannot connect two places or two transitions")
	ErrArcExists        = errors.New("arc already exists")
	ErrUnknownNode      = errors.New("arc references a node that is not part of the net")
	ErrInhibitorToPlace = errors.New("inhibitor arcs must go from a place to a transition")
	ErrDuplicateName    = errors.New("duplicate name")
)

// Weighted is a compiled arc: the index of the place on the other end and the arc weight.
type Weighted struct {
	Place  uint32
	Weight uint32
}

// Net struct
type Net struct {
	ID          string
	Name        string
	Places      []*Place
	Transitions []*Transition
	Arcs        []*Arc

	once       sync.Once
	err        error
	placeIndex map[string]int
	transIndex map[string]int
	placeOf    map[*Place]int
	transOf    map[*Transition]int
	pre        [][]Weighted
	post       [][]Weighted
	inhibitors [][]Weighted
	// per place, the transitions on the other end of its arcs, with weights
	consumers [][]Weighted
	producers [][]Weighted
	inhibits  [][]Weighted
}

func NewNet(name string) *Net {
	return &Net{
		ID:   ID(),
		Name: name,
	}
}

func (n *Net) WithPlaces(places ...*Place) *Net {
	n.Places = append(n.Places, places...)
	return n
}

func (n *Net) WithTransitions(transitions ...*Transition) *Net {
	n.Transitions = append(n.Transitions, transitions...)
	return n
}

func (n *Net) WithArcs(arcs ...*Arc) *Net {
	n.Arcs = append(n.Arcs, arcs...)
	return n
}

func (n *Net) Arc(head, tail Node) *Arc {
	for _, arc := range n.Arcs {
		if arc.Src == head && arc.Dest == tail {
			return arc
		}
	}
	return nil
}

func (n *Net) Inputs(node Node) []*Arc {
	var inputs []*Arc
	for _, arc := range n.Arcs {
		if arc.Dest == node {
			inputs = append(inputs, arc)
		}
	}
	return inputs
}

func (n *Net) Outputs(node Node) []*Arc {
	var outputs []*Arc
	for _, arc := range n.Arcs {
		if arc.Src == node {
			outputs = append(outputs, arc)
		}
	}
	return outputs
}

// AddArc connects from to to with the given weight. It must be called before the net is compiled.
func (n *Net) AddArc(from, to Node, weight uint32) (*Arc, error) {
	if from.Kind() == to.Kind() {
		return nil, ErrSameKind
	}
	if arc := n.Arc(from, to); arc != nil && !arc.Inhibitor {
		return nil, ErrArcExists
	}
	a := NewArc(from, to, weight)
	n.Arcs = append(n.Arcs, a)
	return a, nil
}

// Compile validates the net and builds the index tables used during state space exploration. It is safe to
// call more than once and from several goroutines; the net must not be modified afterwards.
func (n *Net) Compile() error {
	n.once.Do(func() {
		n.err = n.compile()
	})
	return n.err
}

func (n *Net) compile() error {
	n.placeIndex = make(map[string]int, len(n.Places))
	n.placeOf = make(map[*Place]int, len(n.Places))
	for i, p := range n.Places {
		if _, found := n.placeIndex[p.Name]; found {
			return fmt.Errorf("place %s: %w", p.Name, ErrDuplicateName)
		}
		n.placeIndex[p.Name] = i
		n.placeOf[p] = i
	}
	n.transIndex = make(map[string]int, len(n.Transitions))
	n.transOf = make(map[*Transition]int, len(n.Transitions))
	for i, t := range n.Transitions {
		if _, found := n.transIndex[t.Name]; found {
			return fmt.Errorf("transition %s: %w", t.Name, ErrDuplicateName)
		}
		n.transIndex[t.Name] = i
		n.transOf[t] = i
	}
	n.pre = make([][]Weighted, len(n.Transitions))
	n.post = make([][]Weighted, len(n.Transitions))
	n.inhibitors = make([][]Weighted, len(n.Transitions))
	n.consumers = make([][]Weighted, len(n.Places))
	n.producers = make([][]Weighted, len(n.Places))
	n.inhibits = make([][]Weighted, len(n.Places))
	for _, a := range n.Arcs {
		if a.Src.Kind() == a.Dest.Kind() {
			return fmt.Errorf("arc %s: %w", a, ErrSameKind)
		}
		weight := a.Weight
		if weight == 0 {
			weight = 1
		}
		switch src := a.Src.(type) {
		case *Place:
			p, ok := n.placeOf[src]
			t, ok2 := n.transOf[a.Dest.(*Transition)]
			if !ok || !ok2 {
				return fmt.Errorf("arc %s: %w", a, ErrUnknownNode)
			}
			if a.Inhibitor {
				n.inhibitors[t] = addThreshold(n.inhibitors[t], uint32(p), weight)
				n.inhibits[p] = addThreshold(n.inhibits[p], uint32(t), weight)
				continue
			}
			n.pre[t] = addWeight(n.pre[t], uint32(p), weight)
			n.consumers[p] = addWeight(n.consumers[p], uint32(t), weight)
		case *Transition:
			if a.Inhibitor {
				return fmt.Errorf("arc %s: %w", a, ErrInhibitorToPlace)
			}
			t, ok := n.transOf[src]
			p, ok2 := n.placeOf[a.Dest.(*Place)]
			if !ok || !ok2 {
				return fmt.Errorf("arc %s: %w", a, ErrUnknownNode)
			}
			n.post[t] = addWeight(n.post[t], uint32(p), weight)
			n.producers[p] = addWeight(n.producers[p], uint32(t), weight)
		}
	}
	return nil
}

// addWeight merges parallel arcs by summing their weights.
func addWeight(ws []Weighted, idx, weight uint32) []Weighted {
	for i := range ws {
		if ws[i].Place == idx {
			ws[i].Weight += weight
			return ws
		}
	}
	return append(ws, Weighted{Place: idx, Weight: weight})
}

// addThreshold merges parallel inhibitor arcs, keeping the smallest threshold.
func addThreshold(ws []Weighted, idx, weight uint32) []Weighted {
	for i := range ws {
		if ws[i].Place == idx {
			ws[i].Weight = min(ws[i].Weight, weight)
			return ws
		}
	}
	return append(ws, Weighted{Place: idx, Weight: weight})
}

func (n *Net) mustCompile() {
	if err := n.Compile(); err != nil {
		panic(err)
	}
}

func (n *Net) NumPlaces() int { return len(n.Places) }

func (n *Net) NumTransitions() int { return len(n.Transitions) }

// Preset returns the consuming arcs of transition t.
func (n *Net) Preset(t uint32) []Weighted {
	n.mustCompile()
	return n.pre[t]
}

// Postset returns the producing arcs of transition t.
func (n *Net) Postset(t uint32) []Weighted {
	n.mustCompile()
	return n.post[t]
}

// Inhibitors returns the inhibitor arcs of transition t.
func (n *Net) Inhibitors(t uint32) []Weighted {
	n.mustCompile()
	return n.inhibitors[t]
}

// Consumers returns the transitions with a consuming arc from place p. Weighted.Place holds the transition index.
func (n *Net) Consumers(p uint32) []Weighted {
	n.mustCompile()
	return n.consumers[p]
}

// Producers returns the transitions with a producing arc into place p. Weighted.Place holds the transition index.
func (n *Net) Producers(p uint32) []Weighted {
	n.mustCompile()
	return n.producers[p]
}

// Inhibits returns the transitions inhibited by place p. Weighted.Place holds the transition index.
func (n *Net) Inhibits(p uint32) []Weighted {
	n.mustCompile()
	return n.inhibits[p]
}

func (n *Net) PlaceIndex(name string) (int, bool) {
	n.mustCompile()
	i, ok := n.placeIndex[name]
	return i, ok
}

func (n *Net) TransitionIndex(name string) (int, bool) {
	n.mustCompile()
	i, ok := n.transIndex[name]
	return i, ok
}

func (n *Net) Place(name string) *Place {
	if i, ok := n.PlaceIndex(name); ok {
		return n.Places[i]
	}
	return nil
}

func (n *Net) Transition(name string) *Transition {
	if i, ok := n.TransitionIndex(name); ok {
		return n.Transitions[i]
	}
	return nil
}

// TransitionName returns the name of transition t, or "deadlock" for the stuttering step.
func (n *Net) TransitionName(t uint32) string {
	if t == Deadlock {
		return "deadlock"
	}
	return n.Transitions[t].Name
}

func (n *Net) InitialMarking() Marking {
	m := make(Marking, len(n.Places))
	for i, p := range n.Places {
		m[i] = p.Initial
	}
	return m
}

// Enabled returns true if the transition is enabled at m.
func (n *Net) Enabled(m Marking, t uint32) bool {
	n.mustCompile()
	for _, w := range n.pre[t] {
		if m[w.Place] < w.Weight {
			return false
		}
	}
	for _, w := range n.inhibitors[t] {
		if m[w.Place] >= w.Weight {
			return false
		}
	}
	return true
}

// Fire writes the marking reached by firing t at m into out, which may alias m. The caller must have checked
// that t is enabled.
func (n *Net) Fire(m Marking, t uint32, out Marking) Marking {
	n.mustCompile()
	if len(out) != len(m) {
		out = make(Marking, len(m))
	}
	if len(m) == 0 {
		return out
	}
	if &out[0] != &m[0] {
		copy(out, m)
	}
	for _, w := range n.pre[t] {
		out[w.Place] -= w.Weight
	}
	for _, w := range n.post[t] {
		out[w.Place] += w.Weight
	}
	return out
}
