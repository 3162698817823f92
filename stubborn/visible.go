package stubborn

import (
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/analysis"
	"github.com/jt05610/petri/query"
)

type visibility struct {
	net     *petri.Net
	st      *analysis.Structure
	visible []bool
}

var _ query.Interesting = (*visibility)(nil)

func (v *visibility) mark(ts []uint32) {
	for _, t := range ts {
		v.visible[t] = true
	}
}

func (v *visibility) Incr(p uint32) { v.mark(v.st.Increasing[p]) }

func (v *visibility) Decr(p uint32) { v.mark(v.st.Decreasing[p]) }

func (v *visibility) Enabling(t uint32) {
	for _, w := range v.net.Preset(t) {
		v.Incr(w.Place)
	}
	for _, w := range v.net.Inhibitors(t) {
		v.Decr(w.Place)
	}
}

func (v *visibility) Disabling(t uint32) {
	for _, w := range v.net.Preset(t) {
		v.Decr(w.Place)
	}
	for _, w := range v.net.Inhibitors(t) {
		v.Incr(w.Place)
	}
}

func (v *visibility) All() {
	for t := range v.visible {
		v.visible[t] = true
	}
}

// Visible marks the transitions whose firing can change the truth value of any of the atoms, in
// either direction.
func Visible(n *petri.Net, st *analysis.Structure, atoms []query.Condition) []bool {
	v := &visibility{net: n, st: st, visible: make([]bool, n.NumTransitions())}
	for _, a := range atoms {
		a.FindInteresting(v, false)
		a.FindInteresting(v, true)
	}
	return v.visible
}
