package petri

type arcKey struct {
	src, dest string
	kind      Kind
	inhibitor bool
}

// Add fuses nets into a new net. Places and transitions with the same name become one node, so a
// transition shared by several nets fires in all of them at once. The first net that declares a place
// sets its initial tokens, and duplicate arcs are kept once.
func Add(name string, nets ...*Net) *Net {
	out := NewNet(name)
	places := make(map[string]*Place)
	transitions := make(map[string]*Transition)
	seen := make(map[arcKey]bool)
	for _, net := range nets {
		for _, place := range net.Places {
			if _, ok := places[place.Name]; ok {
				continue
			}
			p := NewPlace(place.Name, place.Initial)
			places[place.Name] = p
			out.Places = append(out.Places, p)
		}
		for _, transition := range net.Transitions {
			if _, ok := transitions[transition.Name]; ok {
				continue
			}
			t := NewTransition(transition.Name)
			transitions[transition.Name] = t
			out.Transitions = append(out.Transitions, t)
		}
		for _, arc := range net.Arcs {
			k := arcKey{src: arc.Src.String(), dest: arc.Dest.String(), kind: arc.Src.Kind(), inhibitor: arc.Inhibitor}
			if seen[k] {
				continue
			}
			seen[k] = true
			var a *Arc
			if k.kind == PlaceObject {
				a = NewArc(places[k.src], transitions[k.dest], arc.Weight)
			} else {
				a = NewArc(transitions[k.src], places[k.dest], arc.Weight)
			}
			a.Inhibitor = arc.Inhibitor
			out.Arcs = append(out.Arcs, a)
		}
	}
	return out
}
