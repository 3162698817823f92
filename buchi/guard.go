package buchi

// GuardID addresses a node of a Guards arena. The two terminals are fixed.
type GuardID uint32

const (
	False GuardID = 0
	True  GuardID = 1
)

type guardNode struct {
	ap        uint32
	low, high GuardID
}

// Guards is an arena of reduced ordered decision diagrams over atomic proposition indices. Nodes are
// hash-consed, so equal functions share one GuardID.
type Guards struct {
	nodes  []guardNode
	unique map[guardNode]GuardID
	memo   map[applyKey]GuardID
}

type op uint8

const (
	opAnd op = iota
	opOr
)

type applyKey struct {
	op   op
	a, b GuardID
}

func NewGuards() *Guards {
	return &Guards{
		// terminals carry an out-of-range proposition so they sort below every variable
		nodes:  []guardNode{{ap: ^uint32(0)}, {ap: ^uint32(0)}},
		unique: make(map[guardNode]GuardID),
		memo:   make(map[applyKey]GuardID),
	}
}

func (g *Guards) Len() int { return len(g.nodes) }

func (g *Guards) IsTerminal(id GuardID) bool { return id <= True }

// Node returns the proposition and the two cofactors of a non-terminal guard.
func (g *Guards) Node(id GuardID) (ap uint32, low, high GuardID) {
	n := g.nodes[id]
	return n.ap, n.low, n.high
}

// Var returns the guard that follows high when proposition ap holds and low otherwise.
func (g *Guards) Var(ap uint32, low, high GuardID) GuardID {
	if low == high {
		return low
	}
	n := guardNode{ap: ap, low: low, high: high}
	if id, ok := g.unique[n]; ok {
		return id
	}
	id := GuardID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.unique[n] = id
	return id
}

// Prop is the guard of a single proposition.
func (g *Guards) Prop(ap uint32) GuardID {
	return g.Var(ap, False, True)
}

func (g *Guards) Not(a GuardID) GuardID {
	switch a {
	case True:
		return False
	case False:
		return True
	}
	n := g.nodes[a]
	return g.Var(n.ap, g.Not(n.low), g.Not(n.high))
}

func (g *Guards) And(a, b GuardID) GuardID { return g.apply(opAnd, a, b) }

func (g *Guards) Or(a, b GuardID) GuardID { return g.apply(opOr, a, b) }

func (g *Guards) apply(o op, a, b GuardID) GuardID {
	switch o {
	case opAnd:
		if a == False || b == False {
			return False
		}
		if a == True {
			return b
		}
		if b == True || a == b {
			return a
		}
	case opOr:
		if a == True || b == True {
			return True
		}
		if a == False {
			return b
		}
		if b == False || a == b {
			return a
		}
	}
	if a > b {
		a, b = b, a
	}
	key := applyKey{op: o, a: a, b: b}
	if r, ok := g.memo[key]; ok {
		return r
	}
	na, nb := g.nodes[a], g.nodes[b]
	var r GuardID
	switch {
	case na.ap == nb.ap:
		r = g.Var(na.ap, g.apply(o, na.low, nb.low), g.apply(o, na.high, nb.high))
	case na.ap < nb.ap:
		r = g.Var(na.ap, g.apply(o, na.low, b), g.apply(o, na.high, b))
	default:
		r = g.Var(nb.ap, g.apply(o, a, nb.low), g.apply(o, a, nb.high))
	}
	g.memo[key] = r
	return r
}

// Support lists the propositions a guard depends on.
func (g *Guards) Support(id GuardID) []uint32 {
	seen := make(map[GuardID]bool)
	aps := make(map[uint32]bool)
	var out []uint32
	var visit func(GuardID)
	visit = func(id GuardID) {
		if g.IsTerminal(id) || seen[id] {
			return
		}
		seen[id] = true
		n := g.nodes[id]
		if !aps[n.ap] {
			aps[n.ap] = true
			out = append(out, n.ap)
		}
		visit(n.low)
		visit(n.high)
	}
	visit(id)
	return out
}
