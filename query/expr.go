package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is an integer valued expression over the token counts of a marking.
type Expr interface {
	Evaluate(ctx *EvaluationContext) int
	// FindInteresting marks the transitions that move the value of the expression up when incr is set, or
	// down otherwise.
	FindInteresting(gen Interesting, incr bool)
	String() string
}

// Identifier is the token count of a place. Trace selects the copy of the net under HyperLTL.
type Identifier struct {
	Name      string
	TraceName string
	Place     uint32
	Trace     uint32
}

func (e *Identifier) Evaluate(ctx *EvaluationContext) int {
	return int(ctx.Tokens(e.Place, e.Trace))
}

func (e *Identifier) FindInteresting(gen Interesting, incr bool) {
	if incr {
		gen.Incr(e.Place)
		return
	}
	gen.Decr(e.Place)
}

func (e *Identifier) String() string {
	if e.TraceName != "" {
		return e.TraceName + "." + e.Name
	}
	return e.Name
}

type Literal struct {
	Value int
}

func (e *Literal) Evaluate(*EvaluationContext) int { return e.Value }

func (e *Literal) FindInteresting(Interesting, bool) {}

func (e *Literal) String() string { return strconv.Itoa(e.Value) }

type Plus struct {
	Terms []Expr
}

func (e *Plus) Evaluate(ctx *EvaluationContext) int {
	sum := 0
	for _, t := range e.Terms {
		sum += t.Evaluate(ctx)
	}
	return sum
}

func (e *Plus) FindInteresting(gen Interesting, incr bool) {
	for _, t := range e.Terms {
		t.FindInteresting(gen, incr)
	}
}

func (e *Plus) String() string { return join(e.Terms, " + ") }

type Subtract struct {
	Left, Right Expr
}

func (e *Subtract) Evaluate(ctx *EvaluationContext) int {
	return e.Left.Evaluate(ctx) - e.Right.Evaluate(ctx)
}

func (e *Subtract) FindInteresting(gen Interesting, incr bool) {
	e.Left.FindInteresting(gen, incr)
	e.Right.FindInteresting(gen, !incr)
}

func (e *Subtract) String() string { return fmt.Sprintf("(%s - %s)", e.Left, e.Right) }

type Multiply struct {
	Terms []Expr
}

func (e *Multiply) Evaluate(ctx *EvaluationContext) int {
	prod := 1
	for _, t := range e.Terms {
		prod *= t.Evaluate(ctx)
	}
	return prod
}

// FindInteresting marks both directions: the sign of the other factors is not known statically.
func (e *Multiply) FindInteresting(gen Interesting, _ bool) {
	for _, t := range e.Terms {
		t.FindInteresting(gen, true)
		t.FindInteresting(gen, false)
	}
}

func (e *Multiply) String() string { return join(e.Terms, " * ") }

type Minus struct {
	Sub Expr
}

func (e *Minus) Evaluate(ctx *EvaluationContext) int { return -e.Sub.Evaluate(ctx) }

func (e *Minus) FindInteresting(gen Interesting, incr bool) { e.Sub.FindInteresting(gen, !incr) }

func (e *Minus) String() string { return "-" + e.Sub.String() }

func join(terms []Expr, sep string) string {
	s := make([]string, len(terms))
	for i, t := range terms {
		s[i] = t.String()
	}
	return "(" + strings.Join(s, sep) + ")"
}
