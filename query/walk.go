package query

// A Visitor's Visit method is invoked for each condition encountered by Walk. If the result visitor w is
// not nil, Walk visits each of the children of c with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(c Condition) (w Visitor)
}

// Walk traverses a condition in depth-first order.
func Walk(v Visitor, c Condition) {
	if v = v.Visit(c); v == nil {
		return
	}
	for _, child := range Children(c) {
		Walk(v, child)
	}
	v.Visit(nil)
}

type inspector func(Condition) bool

func (f inspector) Visit(c Condition) Visitor {
	if f(c) {
		return f
	}
	return nil
}

// Inspect calls f for every condition below and including c until f returns false.
func Inspect(c Condition, f func(Condition) bool) {
	Walk(inspector(f), c)
}

// Children returns the direct sub-conditions of c.
func Children(c Condition) []Condition {
	switch c := c.(type) {
	case *Not:
		return []Condition{c.Sub}
	case *And:
		return c.Subs
	case *Or:
		return c.Subs
	case *Globally:
		return []Condition{c.Sub}
	case *Finally:
		return []Condition{c.Sub}
	case *Next:
		return []Condition{c.Sub}
	case *Until:
		return []Condition{c.Left, c.Right}
	case *PathQuant:
		return []Condition{c.Sub}
	case *CTL:
		if c.Left != nil {
			return []Condition{c.Left, c.Right}
		}
		return []Condition{c.Right}
	}
	return nil
}

// Rewrite rebuilds c bottom-up, replacing every condition by the result of f applied to its rewritten
// form. Leaves are shared with the input.
func Rewrite(c Condition, f func(Condition) Condition) Condition {
	switch n := c.(type) {
	case *Not:
		c = &Not{Sub: Rewrite(n.Sub, f)}
	case *And:
		c = &And{Subs: rewriteAll(n.Subs, f)}
	case *Or:
		c = &Or{Subs: rewriteAll(n.Subs, f)}
	case *Globally:
		c = G(Rewrite(n.Sub, f))
	case *Finally:
		c = F(Rewrite(n.Sub, f))
	case *Next:
		c = X(Rewrite(n.Sub, f))
	case *Until:
		c = U(Rewrite(n.Left, f), Rewrite(n.Right, f))
	case *PathQuant:
		c = &PathQuant{Quantifier: n.Quantifier, Name: n.Name, Sub: Rewrite(n.Sub, f)}
	case *CTL:
		cp := &CTL{Op: n.Op, Right: Rewrite(n.Right, f)}
		if n.Left != nil {
			cp.Left = Rewrite(n.Left, f)
		}
		c = cp
	}
	return f(c)
}

func rewriteAll(cs []Condition, f func(Condition) Condition) []Condition {
	out := make([]Condition, len(cs))
	for i, c := range cs {
		out[i] = Rewrite(c, f)
	}
	return out
}

// Atoms returns the maximal non-temporal sub-conditions of c, the atomic propositions of a path formula.
func Atoms(c Condition) []Condition {
	var atoms []Condition
	Inspect(c, func(n Condition) bool {
		if n == nil {
			return false
		}
		switch n.(type) {
		case *Not, *And, *Or:
			if n.IsTemporal() {
				return true
			}
		case *Globally, *Finally, *Next, *Until, *PathQuant, *CTL:
			return true
		case *Bool:
			return false
		}
		atoms = append(atoms, n)
		return false
	})
	return atoms
}
