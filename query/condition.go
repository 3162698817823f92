package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/jt05610/petri"
)

// Infinity is the distance of a condition that no marking can satisfy.
const Infinity = math.MaxUint32

// Condition is a resolved state or path formula. Place and transition names are already bound to indices.
type Condition interface {
	Evaluate(ctx *EvaluationContext) Result
	Distance(ctx *DistanceContext) uint32
	// FindInteresting marks the transitions whose firing may change the truth value of the condition in
	// the direction given by negated.
	FindInteresting(gen Interesting, negated bool)
	IsTemporal() bool
	ContainsNext() bool
	String() string
}

// Interesting collects the transitions a condition depends on.
type Interesting interface {
	// Incr marks the transitions that add tokens to place.
	Incr(place uint32)
	// Decr marks the transitions that remove tokens from place.
	Decr(place uint32)
	// Enabling marks the transitions that may enable t.
	Enabling(t uint32)
	// Disabling marks the transitions that may disable t.
	Disabling(t uint32)
	All()
}

func satAdd(a, b uint32) uint32 {
	if s := uint64(a) + uint64(b); s < Infinity {
		return uint32(s)
	}
	return Infinity
}

type Bool struct {
	Value bool
}

var (
	True  = &Bool{Value: true}
	False = &Bool{Value: false}
)

func (c *Bool) Evaluate(*EvaluationContext) Result { return ResultOf(c.Value) }

func (c *Bool) Distance(ctx *DistanceContext) uint32 {
	if c.Value != ctx.Negated() {
		return 0
	}
	return Infinity
}

func (c *Bool) FindInteresting(Interesting, bool) {}
func (c *Bool) IsTemporal() bool { return false }
func (c *Bool) ContainsNext() bool { return false }

func (c *Bool) String() string {
	if c.Value {
		return "true"
	}
	return "false"
}

type CompareOp uint8

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CompareOp) String() string {
	return [...]string{"==", "!=", "<", "<=", ">", ">="}[op]
}

func (op CompareOp) negate() CompareOp {
	return [...]CompareOp{Ne, Eq, Ge, Gt, Le, Lt}[op]
}

func (op CompareOp) apply(a, b int) bool {
	switch op {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	default:
		return a >= b
	}
}

func abs(v int) uint32 {
	if v < 0 {
		return uint32(-v)
	}
	return uint32(v)
}

// delta is the number of tokens that must move for op to hold, or to fail when negated.
func (op CompareOp) delta(a, b int, negated bool) uint32 {
	if negated {
		op = op.negate()
	}
	switch op {
	case Gt:
		a, b, op = b, a, Lt
	case Ge:
		a, b, op = b, a, Le
	}
	switch op {
	case Eq:
		return abs(a - b)
	case Ne:
		if a == b {
			return 1
		}
		return 0
	case Lt:
		if a < b {
			return 0
		}
		return uint32(a - b + 1)
	default:
		if a <= b {
			return 0
		}
		return uint32(a - b)
	}
}

type Compare struct {
	Op          CompareOp
	Left, Right Expr
}

func (c *Compare) Evaluate(ctx *EvaluationContext) Result {
	return ResultOf(c.Op.apply(c.Left.Evaluate(ctx), c.Right.Evaluate(ctx)))
}

func (c *Compare) Distance(ctx *DistanceContext) uint32 {
	return c.Op.delta(c.Left.Evaluate(&ctx.EvaluationContext), c.Right.Evaluate(&ctx.EvaluationContext), ctx.Negated())
}

func (c *Compare) FindInteresting(gen Interesting, negated bool) {
	op := c.Op
	if negated {
		op = op.negate()
	}
	switch op {
	case Eq, Ne:
		c.Left.FindInteresting(gen, true)
		c.Left.FindInteresting(gen, false)
		c.Right.FindInteresting(gen, true)
		c.Right.FindInteresting(gen, false)
	case Lt, Le:
		c.Left.FindInteresting(gen, false)
		c.Right.FindInteresting(gen, true)
	default:
		c.Left.FindInteresting(gen, true)
		c.Right.FindInteresting(gen, false)
	}
}

func (c *Compare) IsTemporal() bool { return false }
func (c *Compare) ContainsNext() bool { return false }

func (c *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// Fireable holds when transition Transition is enabled in trace Trace.
type Fireable struct {
	Name       string
	TraceName  string
	Transition uint32
	Trace      uint32
}

func (c *Fireable) Evaluate(ctx *EvaluationContext) Result {
	return ResultOf(ctx.Net.Enabled(ctx.Trace(c.Trace), c.Transition))
}

func (c *Fireable) Distance(ctx *DistanceContext) uint32 {
	m := ctx.Trace(c.Trace)
	enabled := ctx.Net.Enabled(m, c.Transition)
	if !ctx.Negated() {
		if enabled {
			return 0
		}
		var d uint32
		for _, w := range ctx.Net.Preset(c.Transition) {
			if m[w.Place] < w.Weight {
				d = satAdd(d, w.Weight-m[w.Place])
			}
		}
		for _, w := range ctx.Net.Inhibitors(c.Transition) {
			if m[w.Place] >= w.Weight {
				d = satAdd(d, m[w.Place]-w.Weight+1)
			}
		}
		return d
	}
	if !enabled {
		return 0
	}
	d := uint32(Infinity)
	for _, w := range ctx.Net.Preset(c.Transition) {
		d = min(d, m[w.Place]-w.Weight+1)
	}
	for _, w := range ctx.Net.Inhibitors(c.Transition) {
		d = min(d, w.Weight-m[w.Place])
	}
	return d
}

func (c *Fireable) FindInteresting(gen Interesting, negated bool) {
	if negated {
		gen.Disabling(c.Transition)
		return
	}
	gen.Enabling(c.Transition)
}

func (c *Fireable) IsTemporal() bool { return false }
func (c *Fireable) ContainsNext() bool { return false }

func (c *Fireable) String() string {
	if c.TraceName != "" {
		return fmt.Sprintf("fireable(%s.%s)", c.TraceName, c.Name)
	}
	return fmt.Sprintf("fireable(%s)", c.Name)
}

// Deadlock holds when no transition of trace Trace is enabled.
type Deadlock struct {
	TraceName string
	Trace     uint32
}

func (c *Deadlock) Evaluate(ctx *EvaluationContext) Result {
	return ResultOf(ctx.Deadlocked(c.Trace))
}

func (c *Deadlock) Distance(ctx *DistanceContext) uint32 {
	m := ctx.Trace(c.Trace)
	var enabled uint32
	for t := 0; t < ctx.Net.NumTransitions(); t++ {
		if ctx.Net.Enabled(m, uint32(t)) {
			enabled++
		}
	}
	if ctx.Negated() {
		if enabled == 0 {
			return 1
		}
		return 0
	}
	return enabled
}

func (c *Deadlock) FindInteresting(gen Interesting, _ bool) { gen.All() }
func (c *Deadlock) IsTemporal() bool { return false }
func (c *Deadlock) ContainsNext() bool { return false }

func (c *Deadlock) String() string {
	if c.TraceName != "" {
		return "deadlock(" + c.TraceName + ")"
	}
	return "deadlock"
}

type Not struct {
	Sub Condition
}

func (c *Not) Evaluate(ctx *EvaluationContext) Result { return c.Sub.Evaluate(ctx).Not() }

func (c *Not) Distance(ctx *DistanceContext) uint32 {
	ctx.Negate()
	d := c.Sub.Distance(ctx)
	ctx.Negate()
	return d
}

func (c *Not) FindInteresting(gen Interesting, negated bool) { c.Sub.FindInteresting(gen, !negated) }
func (c *Not) IsTemporal() bool { return c.Sub.IsTemporal() }
func (c *Not) ContainsNext() bool { return c.Sub.ContainsNext() }
func (c *Not) String() string { return "!" + c.Sub.String() }

type And struct {
	Subs []Condition
}

func (c *And) Evaluate(ctx *EvaluationContext) Result {
	r := RTrue
	for _, s := range c.Subs {
		switch s.Evaluate(ctx) {
		case RFalse:
			return RFalse
		case RUnknown:
			r = RUnknown
		}
	}
	return r
}

func (c *And) Distance(ctx *DistanceContext) uint32 {
	return junction(c.Subs, ctx, !ctx.Negated())
}

func (c *And) FindInteresting(gen Interesting, negated bool) {
	for _, s := range c.Subs {
		s.FindInteresting(gen, negated)
	}
}

func (c *And) IsTemporal() bool { return anyOf(c.Subs, Condition.IsTemporal) }
func (c *And) ContainsNext() bool { return anyOf(c.Subs, Condition.ContainsNext) }
func (c *And) String() string { return joinConditions(c.Subs, " && ") }

type Or struct {
	Subs []Condition
}

func (c *Or) Evaluate(ctx *EvaluationContext) Result {
	r := RFalse
	for _, s := range c.Subs {
		switch s.Evaluate(ctx) {
		case RTrue:
			return RTrue
		case RUnknown:
			r = RUnknown
		}
	}
	return r
}

func (c *Or) Distance(ctx *DistanceContext) uint32 {
	return junction(c.Subs, ctx, ctx.Negated())
}

func (c *Or) FindInteresting(gen Interesting, negated bool) {
	for _, s := range c.Subs {
		s.FindInteresting(gen, negated)
	}
}

func (c *Or) IsTemporal() bool { return anyOf(c.Subs, Condition.IsTemporal) }
func (c *Or) ContainsNext() bool { return anyOf(c.Subs, Condition.ContainsNext) }
func (c *Or) String() string { return joinConditions(c.Subs, " || ") }

// junction sums the distances of a conjunction and takes the smallest of a disjunction.
func junction(subs []Condition, ctx *DistanceContext, conjunctive bool) uint32 {
	if conjunctive {
		var d uint32
		for _, s := range subs {
			d = satAdd(d, s.Distance(ctx))
		}
		return d
	}
	d := uint32(Infinity)
	for _, s := range subs {
		d = min(d, s.Distance(ctx))
	}
	return d
}

func anyOf(subs []Condition, f func(Condition) bool) bool {
	for _, s := range subs {
		if f(s) {
			return true
		}
	}
	return false
}

func joinConditions(subs []Condition, sep string) string {
	s := make([]string, len(subs))
	for i, c := range subs {
		s[i] = c.String()
	}
	return "(" + strings.Join(s, sep) + ")"
}

// unary is shared by the temporal operators with one operand.
type unary struct {
	Sub Condition
}

func (c *unary) Evaluate(*EvaluationContext) Result { return RUnknown }
func (c *unary) Distance(ctx *DistanceContext) uint32 { return c.Sub.Distance(ctx) }
func (c *unary) FindInteresting(gen Interesting, negated bool) { c.Sub.FindInteresting(gen, negated) }
func (c *unary) IsTemporal() bool { return true }
func (c *unary) ContainsNext() bool { return c.Sub.ContainsNext() }
func (c *unary) operand() Condition { return c.Sub }

type Globally struct{ unary }
type Finally struct{ unary }
type Next struct{ unary }

func G(c Condition) *Globally { return &Globally{unary{Sub: c}} }
func F(c Condition) *Finally { return &Finally{unary{Sub: c}} }
func X(c Condition) *Next { return &Next{unary{Sub: c}} }

func (c *Globally) String() string { return "G(" + c.Sub.String() + ")" }
func (c *Finally) String() string { return "F(" + c.Sub.String() + ")" }
func (c *Next) String() string { return "X(" + c.Sub.String() + ")" }
func (c *Next) ContainsNext() bool { return true }

type Until struct {
	Left, Right Condition
}

func U(l, r Condition) *Until { return &Until{Left: l, Right: r} }

func (c *Until) Evaluate(*EvaluationContext) Result { return RUnknown }
func (c *Until) Distance(ctx *DistanceContext) uint32 { return c.Right.Distance(ctx) }

func (c *Until) FindInteresting(gen Interesting, negated bool) {
	c.Left.FindInteresting(gen, negated)
	c.Right.FindInteresting(gen, negated)
}

func (c *Until) IsTemporal() bool { return true }
func (c *Until) ContainsNext() bool { return c.Left.ContainsNext() || c.Right.ContainsNext() }
func (c *Until) String() string { return fmt.Sprintf("U(%s, %s)", c.Left, c.Right) }

type Quantifier uint8

const (
	ForAll Quantifier = iota
	Exists
)

func (q Quantifier) String() string {
	if q == Exists {
		return "E"
	}
	return "A"
}

// PathQuant quantifies over paths. A non-empty Name introduces a HyperLTL trace variable.
type PathQuant struct {
	Quantifier Quantifier
	Name       string
	Sub        Condition
}

func A(c Condition) *PathQuant { return &PathQuant{Quantifier: ForAll, Sub: c} }
func E(c Condition) *PathQuant { return &PathQuant{Quantifier: Exists, Sub: c} }

func (c *PathQuant) Evaluate(*EvaluationContext) Result { return RUnknown }
func (c *PathQuant) Distance(ctx *DistanceContext) uint32 { return c.Sub.Distance(ctx) }
func (c *PathQuant) FindInteresting(gen Interesting, negated bool) { c.Sub.FindInteresting(gen, negated) }
func (c *PathQuant) IsTemporal() bool { return true }
func (c *PathQuant) ContainsNext() bool { return c.Sub.ContainsNext() }

func (c *PathQuant) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s(%s, %s)", c.Quantifier, c.Name, c.Sub)
	}
	return fmt.Sprintf("%s(%s)", c.Quantifier, c.Sub)
}

type CTLOp uint8

const (
	AG CTLOp = iota
	AF
	AX
	AU
	EG
	EF
	EX
	EU
)

func (op CTLOp) String() string {
	return [...]string{"AG", "AF", "AX", "AU", "EG", "EF", "EX", "EU"}[op]
}

func (op CTLOp) quantifier() Quantifier {
	if op >= EG {
		return Exists
	}
	return ForAll
}

// CTL is a branching time shortcut such as AG or EU. Left is only set for the until operators.
type CTL struct {
	Op    CTLOp
	Left  Condition
	Right Condition
}

func (c *CTL) Evaluate(*EvaluationContext) Result { return RUnknown }
func (c *CTL) Distance(ctx *DistanceContext) uint32 { return c.Right.Distance(ctx) }

func (c *CTL) FindInteresting(gen Interesting, negated bool) {
	if c.Left != nil {
		c.Left.FindInteresting(gen, negated)
	}
	c.Right.FindInteresting(gen, negated)
}

func (c *CTL) IsTemporal() bool { return true }

func (c *CTL) ContainsNext() bool {
	return c.Op == AX || c.Op == EX || c.Right.ContainsNext() || (c.Left != nil && c.Left.ContainsNext())
}

func (c *CTL) String() string {
	if c.Left != nil {
		return fmt.Sprintf("%s(%s, %s)", c.Op, c.Left, c.Right)
	}
	return fmt.Sprintf("%s(%s)", c.Op, c.Right)
}

var (
	_ Condition = (*Bool)(nil)
	_ Condition = (*Compare)(nil)
	_ Condition = (*Fireable)(nil)
	_ Condition = (*Deadlock)(nil)
	_ Condition = (*Not)(nil)
	_ Condition = (*And)(nil)
	_ Condition = (*Or)(nil)
	_ Condition = (*Globally)(nil)
	_ Condition = (*Finally)(nil)
	_ Condition = (*Next)(nil)
	_ Condition = (*Until)(nil)
	_ Condition = (*PathQuant)(nil)
	_ Condition = (*CTL)(nil)
	_ Condition = (*Expression)(nil)
)

// Evaluate is a convenience for evaluating c on a single marking of n.
func Evaluate(c Condition, n *petri.Net, m petri.Marking) Result {
	return c.Evaluate(NewEvaluationContext(n, m))
}
