package analysis

import (
	"github.com/jt05610/petri"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
)

type Net struct {
	*petri.Net
}

// Incidence returns the transitions × places matrix of token effects.
func (net *Net) Incidence() *mat.Dense {
	m := len(net.Places)
	n := len(net.Transitions)
	if m == 0 || n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(n, m, nil)
	for t := 0; t < n; t++ {
		for _, w := range net.Preset(uint32(t)) {
			d.Set(t, int(w.Place), d.At(t, int(w.Place))-float64(w.Weight))
		}
		for _, w := range net.Postset(uint32(t)) {
			d.Set(t, int(w.Place), d.At(t, int(w.Place))+float64(w.Weight))
		}
	}
	return d
}

// Structure holds the static tables the reduction and heuristics query per state.
type Structure struct {
	// Increasing lists, per place, the transitions whose firing adds tokens to it.
	Increasing [][]uint32
	// Decreasing lists, per place, the transitions whose firing removes tokens from it.
	Decreasing [][]uint32
	// Sticky marks a set of transitions such that every cycle of the reachability graph fires one of them.
	Sticky []bool
}

// Analyze computes the structural tables of a compiled net.
func Analyze(n *petri.Net) (*Structure, error) {
	if err := n.Compile(); err != nil {
		return nil, err
	}
	net := &Net{Net: n}
	s := &Structure{
		Increasing: make([][]uint32, n.NumPlaces()),
		Decreasing: make([][]uint32, n.NumPlaces()),
	}
	if n.NumPlaces() > 0 && n.NumTransitions() > 0 {
		inc := net.Incidence()
		for t := 0; t < n.NumTransitions(); t++ {
			for p := 0; p < n.NumPlaces(); p++ {
				switch v := inc.At(t, p); {
				case v > 0:
					s.Increasing[p] = append(s.Increasing[p], uint32(t))
				case v < 0:
					s.Decreasing[p] = append(s.Decreasing[p], uint32(t))
				}
			}
		}
	}
	s.Sticky = net.Sticky()
	return s, nil
}

// Sticky computes a cycle-breaking transition set. The support of every non-negative T-invariant either
// contains a transition without output places or a cycle of the producer/consumer graph, so sinks, self
// loops and a feedback vertex set of that graph cover every cycle of the state space.
func (net *Net) Sticky() []bool {
	n := net.NumTransitions()
	sticky := make([]bool, n)
	g := simple.NewDirectedGraph()
	for t := 0; t < n; t++ {
		if len(net.Postset(uint32(t))) == 0 {
			sticky[t] = true
			continue
		}
		g.AddNode(simple.Node(t))
	}
	for t := 0; t < n; t++ {
		if sticky[t] {
			continue
		}
		for _, out := range net.Postset(uint32(t)) {
			for _, c := range net.Consumers(out.Place) {
				to := int(c.Place)
				if sticky[to] {
					continue
				}
				if to == t {
					sticky[t] = true
					continue
				}
				g.SetEdge(simple.Edge{F: simple.Node(t), T: simple.Node(to)})
			}
		}
	}
	for t := 0; t < n; t++ {
		if sticky[t] && g.Node(int64(t)) != nil {
			g.RemoveNode(int64(t))
		}
	}
	for {
		removed := false
		for _, scc := range topo.TarjanSCC(g) {
			if len(scc) < 2 {
				continue
			}
			best := pickFeedback(g, scc)
			sticky[best] = true
			g.RemoveNode(best)
			removed = true
		}
		if !removed {
			return sticky
		}
	}
}

// pickFeedback chooses the node of a strongly connected component that lies on most cycles, approximated
// by in-degree times out-degree. Ties go to the lowest id so the result is deterministic.
func pickFeedback(g *simple.DirectedGraph, scc []graph.Node) int64 {
	best := int64(-1)
	bestScore := -1
	for _, node := range scc {
		id := node.ID()
		score := g.To(id).Len() * g.From(id).Len()
		if score > bestScore || (score == bestScore && id < best) {
			best = id
			bestScore = score
		}
	}
	return best
}
