package graphviz

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-graphviz/cgraph"
	"github.com/jt05610/petri"
)

var _ petri.Loader[*petri.Net] = (*Reader)(nil)

var ErrBadLabel = errors.New("label is not a count")

// Reader loads nets written by Writer: circles become places, boxes transitions, and edges arcs.
type Reader struct {
	*Config
	mappingOpp  map[string]petri.Node
	g           *cgraph.Graph
	places      []*petri.Place
	transitions []*petri.Transition
	arcs        []*petri.Arc
}

func count(node string, v string) (uint32, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", node, v, ErrBadLabel)
	}
	return uint32(n), nil
}

func (r *Reader) Load(reader io.Reader) (*petri.Net, error) {
	bytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	r.g, err = cgraph.ParseBytes(bytes)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.g.Close()
	}()
	for node := r.g.FirstNode(); node != nil; node = r.g.NextNode(node) {
		switch node.Get("shape") {
		case "circle":
			tokens, err := count(node.Name(), node.Get("xlabel"))
			if err != nil {
				return nil, err
			}
			p := petri.NewPlace(node.Get("label"), tokens)
			r.places = append(r.places, p)
			r.mappingOpp[node.Name()] = p
		case "box":
			t := petri.NewTransition(node.Get("label"))
			r.transitions = append(r.transitions, t)
			r.mappingOpp[node.Name()] = t
		}
	}
	for n := r.g.FirstNode(); n != nil; n = r.g.NextNode(n) {
		for edge := r.g.FirstOut(n); edge != nil; edge = r.g.NextOut(edge) {
			src := r.mappingOpp[n.Name()]
			dst := r.mappingOpp[edge.Node().Name()]
			if src == nil || dst == nil {
				continue
			}
			weight, err := count(edge.Name(), edge.Get("label"))
			if err != nil {
				return nil, err
			}
			a := petri.NewArc(src, dst, weight)
			a.Inhibitor = edge.Get("arrowhead") == string(cgraph.ODotArrow)
			r.arcs = append(r.arcs, a)
		}
	}
	name := "net"
	if r.Config != nil && r.Config.Name != "" {
		name = r.Config.Name
	}
	n := petri.NewNet(name).WithPlaces(r.places...).WithTransitions(r.transitions...).WithArcs(r.arcs...)
	if err := n.Compile(); err != nil {
		return nil, err
	}
	return n, nil
}

func Loader() *Reader {
	return &Reader{
		mappingOpp:  make(map[string]petri.Node),
		places:      make([]*petri.Place, 0),
		transitions: make([]*petri.Transition, 0),
		arcs:        make([]*petri.Arc, 0),
	}
}
