package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jt05610/petri"
)

// Expression is an atomic proposition the condition language has no native form for. It is compiled with
// expr and evaluated against the token counts of trace 0, place names bound as integers.
type Expression struct {
	Source  string
	Places  []uint32
	names   []string
	program *vm.Program
}

// NewExpression compiles src with the places of n in scope.
func NewExpression(n *petri.Net, src string) (*Expression, error) {
	env := make(map[string]any, n.NumPlaces())
	for _, p := range n.Places {
		env[p.Name] = 0
	}
	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	e := &Expression{Source: src, program: program}
	for _, name := range referencedNames(src) {
		if i, ok := n.PlaceIndex(name); ok {
			e.Places = append(e.Places, uint32(i))
			e.names = append(e.names, name)
		}
	}
	return e, nil
}

func (c *Expression) env(ctx *EvaluationContext) map[string]any {
	env := make(map[string]any, len(c.Places))
	for i, p := range c.Places {
		env[c.names[i]] = int(ctx.Tokens(p, 0))
	}
	return env
}

func (c *Expression) Evaluate(ctx *EvaluationContext) Result {
	out, err := expr.Run(c.program, c.env(ctx))
	if err != nil {
		return RUnknown
	}
	b, ok := out.(bool)
	if !ok {
		return RUnknown
	}
	return ResultOf(b)
}

func (c *Expression) Distance(ctx *DistanceContext) uint32 {
	want := RTrue
	if ctx.Negated() {
		want = RFalse
	}
	if c.Evaluate(&ctx.EvaluationContext) == want {
		return 0
	}
	return 1
}

func (c *Expression) FindInteresting(gen Interesting, _ bool) {
	for _, p := range c.Places {
		gen.Incr(p)
		gen.Decr(p)
	}
}

func (c *Expression) IsTemporal() bool   { return false }
func (c *Expression) ContainsNext() bool { return false }
func (c *Expression) String() string     { return "{" + c.Source + "}" }
