package buchi

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Unreachable is the acceptance distance of a state that cannot reach an accepting state.
const Unreachable = math.MaxUint32

// stateGraph returns the state graph, reversed if requested. Self loops are left out.
func (a *Automaton) stateGraph(reversed bool) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for s := range a.edges {
		g.AddNode(simple.Node(s))
	}
	for s, edges := range a.edges {
		for _, e := range edges {
			from, to := int64(s), int64(e.Dest)
			if from == to || e.Guard == False {
				continue
			}
			if reversed {
				from, to = to, from
			}
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return g
}

// IsWeak reports whether every strongly connected component of the automaton is either entirely
// accepting or entirely rejecting.
func (a *Automaton) IsWeak() bool {
	for _, scc := range topo.TarjanSCC(a.stateGraph(false)) {
		acc := a.accepting[scc[0].ID()]
		for _, n := range scc[1:] {
			if a.accepting[n.ID()] != acc {
				return false
			}
		}
	}
	return true
}

// AcceptDistances returns, per state, the number of edges to the nearest accepting state.
func (a *Automaton) AcceptDistances() []uint32 {
	g := a.stateGraph(true)
	source := simple.Node(a.Len())
	g.AddNode(source)
	for s, acc := range a.accepting {
		if acc {
			g.SetEdge(simple.Edge{F: source, T: simple.Node(s)})
		}
	}
	dist := make([]uint32, a.Len())
	for i := range dist {
		dist[i] = Unreachable
	}
	var bfs traverse.BreadthFirst
	bfs.Walk(g, source, func(n graph.Node, d int) bool {
		if n.ID() != source.ID() {
			dist[n.ID()] = uint32(d - 1)
		}
		return false
	})
	return dist
}
