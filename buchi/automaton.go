package buchi

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jt05610/petri/query"
)

var (
	ErrGuardUnknown  = errors.New("atomic proposition evaluated to unknown in a guard")
	ErrTemporalGuard = errors.New("guards must not contain temporal operators")
	ErrNoState       = errors.New("state out of range")
)

// Edge is an outgoing transition of an automaton state.
type Edge struct {
	Guard GuardID
	Dest  uint32
}

// Proposition is an atomic proposition referenced by guards.
type Proposition struct {
	Name string
	Cond query.Condition
}

// Automaton is a Büchi automaton with state based acceptance whose edges carry guards over atomic
// propositions. It is read-only once the search starts.
type Automaton struct {
	Initial   uint32
	Guards    *Guards
	Props     []Proposition
	edges     [][]Edge
	accepting []bool
	propIndex map[string]uint32
}

func New(states int) *Automaton {
	return &Automaton{
		Guards:    NewGuards(),
		edges:     make([][]Edge, states),
		accepting: make([]bool, states),
		propIndex: make(map[string]uint32),
	}
}

func (a *Automaton) Len() int { return len(a.edges) }

func (a *Automaton) AddState() uint32 {
	a.edges = append(a.edges, nil)
	a.accepting = append(a.accepting, false)
	return uint32(len(a.edges) - 1)
}

func (a *Automaton) Edges(s uint32) []Edge { return a.edges[s] }

func (a *Automaton) IsAccepting(s uint32) bool { return a.accepting[s] }

func (a *Automaton) SetAccepting(s uint32) error {
	if int(s) >= a.Len() {
		return fmt.Errorf("accepting %d: %w", s, ErrNoState)
	}
	a.accepting[s] = true
	return nil
}

// AddEdge adds an edge, merging it into an existing edge between the same states.
func (a *Automaton) AddEdge(from, to uint32, guard GuardID) error {
	if int(from) >= a.Len() || int(to) >= a.Len() {
		return fmt.Errorf("edge %d -> %d: %w", from, to, ErrNoState)
	}
	if guard == False {
		return nil
	}
	for i, e := range a.edges[from] {
		if e.Dest == to {
			a.edges[from][i].Guard = a.Guards.Or(e.Guard, guard)
			return nil
		}
	}
	a.edges[from] = append(a.edges[from], Edge{Guard: guard, Dest: to})
	return nil
}

// Proposition interns c and returns its index.
func (a *Automaton) Proposition(c query.Condition) uint32 {
	name := c.String()
	if i, ok := a.propIndex[name]; ok {
		return i
	}
	i := uint32(len(a.Props))
	a.Props = append(a.Props, Proposition{Name: name, Cond: c})
	a.propIndex[name] = i
	return i
}

// Guard converts the boolean structure of c into a guard. The non-boolean sub-conditions become
// atomic propositions.
func (a *Automaton) Guard(c query.Condition) (GuardID, error) {
	switch c := c.(type) {
	case *query.Bool:
		if c.Value {
			return True, nil
		}
		return False, nil
	case *query.Not:
		g, err := a.Guard(c.Sub)
		if err != nil {
			return False, err
		}
		return a.Guards.Not(g), nil
	case *query.And:
		g := True
		for _, s := range c.Subs {
			sg, err := a.Guard(s)
			if err != nil {
				return False, err
			}
			g = a.Guards.And(g, sg)
		}
		return g, nil
	case *query.Or:
		g := False
		for _, s := range c.Subs {
			sg, err := a.Guard(s)
			if err != nil {
				return False, err
			}
			g = a.Guards.Or(g, sg)
		}
		return g, nil
	}
	if c.IsTemporal() {
		return False, fmt.Errorf("%s: %w", c, ErrTemporalGuard)
	}
	return a.Guards.Prop(a.Proposition(c)), nil
}

// ParseGuard parses src with p and converts it with Guard.
func (a *Automaton) ParseGuard(p *query.Parser, src string) (GuardID, error) {
	c, err := p.Parse(src)
	if err != nil {
		return False, err
	}
	return a.Guard(c)
}

// Eval walks the guard from its root, evaluating only the propositions on the chosen path. An atomic
// proposition that cannot be decided is an internal inconsistency and panics with ErrGuardUnknown.
func (a *Automaton) Eval(id GuardID, ctx *query.EvaluationContext) bool {
	for !a.Guards.IsTerminal(id) {
		ap, low, high := a.Guards.Node(id)
		switch a.Props[ap].Cond.Evaluate(ctx) {
		case query.RTrue:
			id = high
		case query.RFalse:
			id = low
		default:
			panic(fmt.Errorf("%s: %w", a.Props[ap].Name, ErrGuardUnknown))
		}
	}
	return id == True
}

// GuardDistance is the smallest distance of a satisfying path through the guard: the distances of the
// propositions it requires to hold plus those it requires to fail.
func (a *Automaton) GuardDistance(id GuardID, ctx *query.DistanceContext) uint32 {
	memo := make(map[GuardID]uint32)
	var walk func(GuardID) uint32
	walk = func(id GuardID) uint32 {
		switch id {
		case True:
			return 0
		case False:
			return Unreachable
		}
		if d, ok := memo[id]; ok {
			return d
		}
		ap, low, high := a.Guards.Node(id)
		cond := a.Props[ap].Cond
		hi := satAdd(cond.Distance(ctx), walk(high))
		ctx.Negate()
		lo := cond.Distance(ctx)
		ctx.Negate()
		lo = satAdd(lo, walk(low))
		d := min(hi, lo)
		memo[id] = d
		return d
	}
	return walk(id)
}

func satAdd(a, b uint32) uint32 {
	if s := uint64(a) + uint64(b); s < Unreachable {
		return uint32(s)
	}
	return Unreachable
}

// GuardString renders a guard as a disjunction of its satisfying paths.
func (a *Automaton) GuardString(id GuardID) string {
	switch id {
	case True:
		return "true"
	case False:
		return "false"
	}
	var paths []string
	var lits []string
	var walk func(GuardID)
	walk = func(id GuardID) {
		switch id {
		case False:
			return
		case True:
			paths = append(paths, strings.Join(lits, " && "))
			return
		}
		ap, low, high := a.Guards.Node(id)
		name := a.Props[ap].Name
		lits = append(lits, name)
		walk(high)
		lits[len(lits)-1] = "!" + name
		walk(low)
		lits = lits[:len(lits)-1]
	}
	walk(id)
	if len(paths) == 1 {
		return paths[0]
	}
	for i, p := range paths {
		if strings.Contains(p, " && ") {
			paths[i] = "(" + p + ")"
		}
	}
	return strings.Join(paths, " || ")
}

// Atoms returns the conditions of the atomic propositions in index order.
func (a *Automaton) Atoms() []query.Condition {
	out := make([]query.Condition, len(a.Props))
	for i, p := range a.Props {
		out[i] = p.Cond
	}
	return out
}

// Cursor enumerates the edges of one state whose guards hold on a marking.
type Cursor struct {
	a     *Automaton
	edges []Edge
	pos   int
}

func (a *Automaton) Cursor() *Cursor {
	return &Cursor{a: a}
}

func (c *Cursor) Reset(state uint32) {
	c.edges = c.a.edges[state]
	c.pos = 0
}

func (c *Cursor) Next(ctx *query.EvaluationContext) (Edge, bool) {
	for c.pos < len(c.edges) {
		e := c.edges[c.pos]
		c.pos++
		if c.a.Eval(e.Guard, ctx) {
			return e, true
		}
	}
	return Edge{}, false
}

// WriteHOA writes the automaton in a format close to the Hanoi Omega-Automata format, with guards
// rendered over proposition names.
func (a *Automaton) WriteHOA(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "HOA: v1\nStates: %d\nStart: %d\nAP: %d", a.Len(), a.Initial, len(a.Props))
	for _, p := range a.Props {
		fmt.Fprintf(&sb, " %q", p.Name)
	}
	sb.WriteString("\nAcceptance: 1 Inf(0)\n--BODY--\n")
	for s := range a.edges {
		fmt.Fprintf(&sb, "State: %d", s)
		if a.accepting[s] {
			sb.WriteString(" {0}")
		}
		sb.WriteString("\n")
		for _, e := range a.edges[s] {
			fmt.Fprintf(&sb, "[%s] %d\n", a.GuardString(e.Guard), e.Dest)
		}
	}
	sb.WriteString("--END--\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
