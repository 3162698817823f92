package query

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/jt05610/petri"
)

var (
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrArity             = errors.New("wrong number of arguments")
	ErrRecursive         = errors.New("proposition refers to itself")
	errNotExpr           = errors.New("not an integer expression")
)

// Parser translates formulas written in expr syntax into resolved conditions over a net.
//
//	A(G(!(crit1 >= 1 && crit2 >= 1)))
//	E(pi1, E(pi2, G(pi1.out == pi2.out)))
//	AG(EF(fireable(reset)))
//
// Place names are integer expressions, named propositions expand to their definition, and the
// operators G, F, X, U, A, E and the shortcuts AG, AF, AX, AU, EG, EF, EX, EU are calls. Sub-expressions
// without a native form are compiled by expr as opaque atoms.
type Parser struct {
	net          *petri.Net
	propositions map[string]string
	scope        []string
	expanding    map[string]bool
}

func NewParser(n *petri.Net, propositions map[string]string) *Parser {
	return &Parser{
		net:          n,
		propositions: propositions,
		expanding:    make(map[string]bool),
	}
}

// WithTraces returns a copy of p in which the given trace names are in scope, so guards of HyperLTL
// automata can refer to pi.place outside of a quantifier.
func (p *Parser) WithTraces(traces ...string) *Parser {
	c := *p
	c.scope = append([]string(nil), traces...)
	return &c
}

// Parse is a shortcut for NewParser(n, propositions).Parse(src).
func Parse(n *petri.Net, src string, propositions map[string]string) (Condition, error) {
	return NewParser(n, propositions).Parse(src)
}

func (p *Parser) Parse(src string) (Condition, error) {
	if err := p.net.Compile(); err != nil {
		return nil, err
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	return p.condition(tree.Node)
}

func (p *Parser) condition(node ast.Node) (Condition, error) {
	switch n := node.(type) {
	case *ast.BoolNode:
		if n.Value {
			return True, nil
		}
		return False, nil
	case *ast.IdentifierNode:
		return p.identifier(n.Value)
	case *ast.UnaryNode:
		if n.Operator == "!" || n.Operator == "not" {
			sub, err := p.condition(n.Node)
			if err != nil {
				return nil, err
			}
			return &Not{Sub: sub}, nil
		}
	case *ast.BinaryNode:
		return p.binary(n)
	case *ast.CallNode:
		if callee, ok := n.Callee.(*ast.IdentifierNode); ok {
			return p.call(callee.Value, n)
		}
	}
	return p.opaque(node)
}

func (p *Parser) identifier(name string) (Condition, error) {
	if name == "deadlock" {
		return &Deadlock{}, nil
	}
	src, ok := p.propositions[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownIdentifier)
	}
	if p.expanding[name] {
		return nil, fmt.Errorf("%s: %w", name, ErrRecursive)
	}
	p.expanding[name] = true
	defer delete(p.expanding, name)
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("proposition %s: %w", name, err)
	}
	return p.condition(tree.Node)
}

func (p *Parser) binary(n *ast.BinaryNode) (Condition, error) {
	switch n.Operator {
	case "&&", "and", "||", "or":
		l, err := p.condition(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.condition(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Operator == "&&" || n.Operator == "and" {
			return &And{Subs: flatten[*And](l, r)}, nil
		}
		return &Or{Subs: flatten[*Or](l, r)}, nil
	}
	ops := map[string]CompareOp{"==": Eq, "!=": Ne, "<": Lt, "<=": Le, ">": Gt, ">=": Ge}
	op, ok := ops[n.Operator]
	if !ok {
		return p.opaque(n)
	}
	l, err := p.expr(n.Left)
	if errors.Is(err, errNotExpr) {
		return p.opaque(n)
	} else if err != nil {
		return nil, err
	}
	r, err := p.expr(n.Right)
	if errors.Is(err, errNotExpr) {
		return p.opaque(n)
	} else if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: l, Right: r}, nil
}

func flatten[T interface {
	*And | *Or
	Condition
}](l, r Condition) []Condition {
	var out []Condition
	for _, c := range []Condition{l, r} {
		switch j := c.(type) {
		case T:
			out = append(out, Children(j)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

var (
	unaryOps = map[string]func(Condition) Condition{
		"G": func(c Condition) Condition { return G(c) },
		"F": func(c Condition) Condition { return F(c) },
		"X": func(c Condition) Condition { return X(c) },
	}
	ctlOps = map[string]CTLOp{
		"AG": AG, "AF": AF, "AX": AX, "AU": AU,
		"EG": EG, "EF": EF, "EX": EX, "EU": EU,
	}
)

func (p *Parser) call(name string, n *ast.CallNode) (Condition, error) {
	args := n.Arguments
	arity := func(want int) error {
		if len(args) != want {
			return fmt.Errorf("%s takes %d arguments, got %d: %w", name, want, len(args), ErrArity)
		}
		return nil
	}
	switch name {
	case "G", "F", "X":
		if err := arity(1); err != nil {
			return nil, err
		}
		sub, err := p.condition(args[0])
		if err != nil {
			return nil, err
		}
		return unaryOps[name](sub), nil
	case "U":
		if err := arity(2); err != nil {
			return nil, err
		}
		l, r, err := p.pair(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return U(l, r), nil
	case "A", "E":
		return p.quantifier(name, args)
	case "AG", "AF", "AX", "EG", "EF", "EX":
		if err := arity(1); err != nil {
			return nil, err
		}
		sub, err := p.condition(args[0])
		if err != nil {
			return nil, err
		}
		return &CTL{Op: ctlOps[name], Right: sub}, nil
	case "AU", "EU":
		if err := arity(2); err != nil {
			return nil, err
		}
		l, r, err := p.pair(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return &CTL{Op: ctlOps[name], Left: l, Right: r}, nil
	case "fireable":
		return p.fireable(args)
	case "deadlock":
		if err := arity(1); err != nil {
			return nil, err
		}
		id, ok := args[0].(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("deadlock expects a trace name: %w", ErrUnknownIdentifier)
		}
		trace, err := p.trace(id.Value)
		if err != nil {
			return nil, err
		}
		return &Deadlock{TraceName: id.Value, Trace: trace}, nil
	}
	return p.opaque(n)
}

func (p *Parser) pair(a, b ast.Node) (Condition, Condition, error) {
	l, err := p.condition(a)
	if err != nil {
		return nil, nil, err
	}
	r, err := p.condition(b)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// quantifier parses A(f), E(f) and the named form A(pi1, pi2, f), which nests one quantifier per name.
func (p *Parser) quantifier(name string, args []ast.Node) (Condition, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s takes at least 1 argument: %w", name, ErrArity)
	}
	q := ForAll
	if name == "E" {
		q = Exists
	}
	names := make([]string, 0, len(args)-1)
	for _, a := range args[:len(args)-1] {
		id, ok := a.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("%s: trace names must be identifiers: %w", name, ErrUnknownIdentifier)
		}
		names = append(names, id.Value)
	}
	depth := len(p.scope)
	p.scope = append(p.scope, names...)
	defer func() { p.scope = p.scope[:depth] }()
	body, err := p.condition(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return &PathQuant{Quantifier: q, Sub: body}, nil
	}
	for i := len(names) - 1; i >= 0; i-- {
		body = &PathQuant{Quantifier: q, Name: names[i], Sub: body}
	}
	return body, nil
}

func (p *Parser) trace(name string) (uint32, error) {
	for i, s := range p.scope {
		if s == name {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("trace %s: %w", name, ErrUnknownIdentifier)
}

// fireable(t1, t2) holds when any of the listed transitions is enabled.
func (p *Parser) fireable(args []ast.Node) (Condition, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("fireable takes at least 1 argument: %w", ErrArity)
	}
	subs := make([]Condition, 0, len(args))
	for _, a := range args {
		f := &Fireable{}
		switch n := a.(type) {
		case *ast.IdentifierNode:
			f.Name = n.Value
		case *ast.MemberNode:
			traceName, name, ok := member(n)
			if !ok {
				return nil, fmt.Errorf("fireable(%s): %w", a, ErrUnknownIdentifier)
			}
			trace, err := p.trace(traceName)
			if err != nil {
				return nil, err
			}
			f.Name, f.TraceName, f.Trace = name, traceName, trace
		default:
			return nil, fmt.Errorf("fireable(%s): %w", a, ErrUnknownIdentifier)
		}
		t, ok := p.net.TransitionIndex(f.Name)
		if !ok {
			return nil, fmt.Errorf("transition %s: %w", f.Name, ErrUnknownIdentifier)
		}
		f.Transition = uint32(t)
		subs = append(subs, f)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	return &Or{Subs: subs}, nil
}

func member(n *ast.MemberNode) (string, string, bool) {
	id, ok := n.Node.(*ast.IdentifierNode)
	if !ok {
		return "", "", false
	}
	prop, ok := n.Property.(*ast.StringNode)
	if !ok {
		return "", "", false
	}
	return id.Value, prop.Value, true
}

func (p *Parser) expr(node ast.Node) (Expr, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return &Literal{Value: n.Value}, nil
	case *ast.IdentifierNode:
		i, ok := p.net.PlaceIndex(n.Value)
		if !ok {
			return nil, fmt.Errorf("place %s: %w", n.Value, ErrUnknownIdentifier)
		}
		return &Identifier{Name: n.Value, Place: uint32(i)}, nil
	case *ast.MemberNode:
		traceName, name, ok := member(n)
		if !ok {
			return nil, errNotExpr
		}
		trace, err := p.trace(traceName)
		if err != nil {
			return nil, err
		}
		i, ok := p.net.PlaceIndex(name)
		if !ok {
			return nil, fmt.Errorf("place %s: %w", name, ErrUnknownIdentifier)
		}
		return &Identifier{Name: name, TraceName: traceName, Place: uint32(i), Trace: trace}, nil
	case *ast.UnaryNode:
		sub, err := p.expr(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "-":
			return &Minus{Sub: sub}, nil
		case "+":
			return sub, nil
		}
	case *ast.BinaryNode:
		l, err := p.expr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.expr(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "+":
			return &Plus{Terms: []Expr{l, r}}, nil
		case "-":
			return &Subtract{Left: l, Right: r}, nil
		case "*":
			return &Multiply{Terms: []Expr{l, r}}, nil
		}
	}
	return nil, errNotExpr
}

// opaque compiles node with expr. Opaque atoms only see trace 0.
func (p *Parser) opaque(node ast.Node) (Condition, error) {
	return NewExpression(p.net, node.String())
}

type identifiers []string

func (ids *identifiers) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IdentifierNode); ok {
		*ids = append(*ids, n.Value)
	}
}

// referencedNames lists the identifiers of an expr source, or nothing if it does not parse.
func referencedNames(src string) []string {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil
	}
	var ids identifiers
	ast.Walk(&tree.Node, &ids)
	return ids
}
