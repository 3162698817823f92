package petri

import "fmt"

// Arc is a connection from a place to a transition or a transition to a place.
type Arc struct {
	ID string `json:"_id"`
	// Src is the place or transition that is the source of the arc.
	Src Node `json:"-"`
	// Dest is the place or transition that is the destination of the arc.
	Dest Node `json:"-"`
	// Weight is the number of tokens moved along the arc. For inhibitor arcs it is the threshold at which the
	// transition becomes disabled.
	Weight uint32 `json:"weight,omitempty"`
	// Inhibitor arcs only ever go from a place to a transition.
	Inhibitor bool `json:"inhibitor,omitempty"`
}

func NewArc(from, to Node, weight uint32) *Arc {
	if weight == 0 {
		weight = 1
	}
	return &Arc{
		ID:     ID(),
		Src:    from,
		Dest:   to,
		Weight: weight,
	}
}

// NewInhibitor creates an arc that disables to while from holds at least weight tokens.
func NewInhibitor(from *Place, to *Transition, weight uint32) *Arc {
	a := NewArc(from, to, weight)
	a.Inhibitor = true
	return a
}

func (a *Arc) Identifier() string {
	return a.ID
}

func (a *Arc) String() string {
	if a.Inhibitor {
		return fmt.Sprintf("%s -o %s", a.Src, a.Dest)
	}
	if a.Weight > 1 {
		return fmt.Sprintf("%s -(%d)-> %s", a.Src, a.Weight, a.Dest)
	}
	return a.Src.String() + " -> " + a.Dest.String()
}

func (a *Arc) Kind() Kind { return ArcObject }
