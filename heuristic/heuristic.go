package heuristic

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/product"
	"github.com/jt05610/petri/query"
)

var ErrUnknown = errors.New("unknown option")

// Kind identifies a heuristic variant.
type Kind uint8

const (
	KindAutomaton Kind = iota
	KindDistance
	KindLogFireCount
	KindRandom
)

func (k Kind) String() string {
	return [...]string{"automaton", "distance", "firecount", "random"}[k]
}

// Heuristic ranks the successors of a state; lower values are explored first. Push and Pop bracket the
// exploration of a transition.
type Heuristic interface {
	Eval(s product.State, t uint32) uint32
	Push(t uint32)
	Pop(t uint32)
	Kind() Kind
	heuristic()
}

// Automaton prefers successors whose automaton state is close to acceptance. The distance of a
// successor is the smallest, over the edges leaving its automaton state, of the acceptance distance of
// the edge target times Scale plus the distance of the marking to satisfying the edge guard.
type Automaton struct {
	net   *petri.Net
	aut   *buchi.Automaton
	dist  []uint32
	Scale uint32
}

func NewAutomaton(n *petri.Net, aut *buchi.Automaton) *Automaton {
	return &Automaton{net: n, aut: aut, dist: aut.AcceptDistances(), Scale: 1000}
}

func (h *Automaton) Eval(s product.State, _ uint32) uint32 {
	ctx := query.NewDistanceContext(h.net, s.Marking)
	best := uint32(buchi.Unreachable)
	for _, e := range h.aut.Edges(s.Buchi) {
		d := h.dist[e.Dest]
		if d == buchi.Unreachable {
			continue
		}
		v := uint64(d)*uint64(h.Scale) + uint64(h.aut.GuardDistance(e.Guard, ctx))
		if v < uint64(best) {
			best = uint32(v)
		}
	}
	return best
}

func (h *Automaton) Push(uint32) {}
func (h *Automaton) Pop(uint32)  {}
func (h *Automaton) Kind() Kind  { return KindAutomaton }
func (h *Automaton) heuristic()  {}

// Distance ranks successors by the distance of their marking to satisfying a formula, usually the
// negation of the property.
type Distance struct {
	net     *petri.Net
	formula query.Condition
}

func NewDistance(n *petri.Net, formula query.Condition) *Distance {
	return &Distance{net: n, formula: formula}
}

func (h *Distance) Eval(s product.State, _ uint32) uint32 {
	return h.formula.Distance(query.NewDistanceContext(h.net, s.Marking))
}

func (h *Distance) Push(uint32) {}
func (h *Distance) Pop(uint32)  {}
func (h *Distance) Kind() Kind  { return KindDistance }
func (h *Distance) heuristic()  {}

// DefaultCeiling is the fire count at which all counts are halved.
const DefaultCeiling = 5000

// LogFireCount penalises transitions fired often on the current search path, logarithmically in the
// count. Counts are halved when one reaches Ceiling.
type LogFireCount struct {
	counts  []uint32
	Ceiling uint32
	Scale   float64
}

func NewLogFireCount(n *petri.Net, ceiling uint32) *LogFireCount {
	if ceiling == 0 {
		ceiling = DefaultCeiling
	}
	return &LogFireCount{counts: make([]uint32, n.NumTransitions()), Ceiling: ceiling, Scale: 100}
}

func (h *LogFireCount) Eval(_ product.State, t uint32) uint32 {
	if int(t) >= len(h.counts) {
		return 0
	}
	return uint32(math.Round(h.Scale * math.Log2(1+float64(h.counts[t]))))
}

func (h *LogFireCount) Push(t uint32) {
	if int(t) >= len(h.counts) {
		return
	}
	h.counts[t]++
	if h.counts[t] >= h.Ceiling {
		for i := range h.counts {
			h.counts[i] /= 2
		}
	}
}

func (h *LogFireCount) Pop(t uint32) {
	if int(t) < len(h.counts) && h.counts[t] > 0 {
		h.counts[t]--
	}
}

func (h *LogFireCount) Count(t uint32) uint32 { return h.counts[t] }
func (h *LogFireCount) Kind() Kind            { return KindLogFireCount }
func (h *LogFireCount) heuristic()            {}

// Random ranks successors uniformly at random from an explicit seed.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (h *Random) Eval(product.State, uint32) uint32 { return h.rng.Uint32() }
func (h *Random) Push(uint32)                       {}
func (h *Random) Pop(uint32)                        {}
func (h *Random) Kind() Kind                        { return KindRandom }
func (h *Random) heuristic()                        {}

var (
	_ Heuristic = (*Automaton)(nil)
	_ Heuristic = (*Distance)(nil)
	_ Heuristic = (*LogFireCount)(nil)
	_ Heuristic = (*Random)(nil)
)

// Strategy is the exploration order of the search.
type Strategy uint8

const (
	StrategyDefault Strategy = iota
	StrategyDFS
	StrategyRDFS
	StrategyHEUR
	// StrategyRPFS orders successors through a random potency queue.
	StrategyRPFS
	// StrategyMCPFS orders successors through a Monte-Carlo potency queue.
	StrategyMCPFS
)

var strategyNames = [...]string{"default", "dfs", "rdfs", "heur", "rpfs", "mcpfs"}

func (s Strategy) String() string { return strategyNames[s] }

func ParseStrategy(s string) (Strategy, error) {
	for i, name := range strategyNames {
		if strings.EqualFold(s, name) {
			return Strategy(i), nil
		}
	}
	return StrategyDefault, fmt.Errorf("strategy %q: %w", s, ErrUnknown)
}

// Type is the configured heuristic.
type Type uint8

const (
	TypeDefault Type = iota
	TypeAutomaton
	TypeDistance
	TypeFireCount
	TypeDFS
	TypeRDFS
)

var typeNames = [...]string{"default", "automaton", "distance", "firecount", "dfs", "rdfs"}

func (t Type) String() string { return typeNames[t] }

func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return TypeDefault, fmt.Errorf("heuristic %q: %w", s, ErrUnknown)
}

// Options select and parameterise a heuristic.
type Options struct {
	Strategy  Strategy
	Type      Type
	Seed      int64
	Net       *petri.Net
	Automaton *buchi.Automaton
	// Formula is the formula whose satisfaction the Distance heuristic steers towards.
	Formula query.Condition
}

// Make selects the heuristic for o. Random DFS always ranks randomly. The heuristic strategies use the
// configured heuristic, by default Automaton, and the others return nil.
func Make(o Options) Heuristic {
	switch {
	case o.Strategy == StrategyRDFS || o.Type == TypeRDFS:
		return NewRandom(o.Seed)
	case o.Strategy != StrategyHEUR && o.Strategy != StrategyDefault, o.Type == TypeDFS:
		return nil
	}
	switch o.Type {
	case TypeDistance:
		return NewDistance(o.Net, o.Formula)
	case TypeFireCount:
		return NewLogFireCount(o.Net, DefaultCeiling)
	}
	return NewAutomaton(o.Net, o.Automaton)
}
