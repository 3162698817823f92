package query

import (
	"errors"
	"fmt"
)

var ErrUnsupportedFragment = errors.New("formula is outside the supported LTL fragment")

// IsLTL reports whether c is a path formula without nested path quantifiers.
func IsLTL(c Condition) bool {
	ok := true
	Inspect(c, func(n Condition) bool {
		switch n.(type) {
		case *PathQuant, *CTL:
			ok = false
		}
		return ok
	})
	return ok
}

// Expand replaces the branching time shortcuts by a path quantifier over the matching path operator, so
// AG f becomes A(G(f)) and EU(a, b) becomes E(U(a, b)).
func Expand(c Condition) Condition {
	return Rewrite(c, func(n Condition) Condition {
		ctl, ok := n.(*CTL)
		if !ok {
			return n
		}
		var path Condition
		switch ctl.Op {
		case AG, EG:
			path = G(ctl.Right)
		case AF, EF:
			path = F(ctl.Right)
		case AX, EX:
			path = X(ctl.Right)
		default:
			path = U(ctl.Left, ctl.Right)
		}
		return &PathQuant{Quantifier: ctl.Op.quantifier(), Sub: path}
	})
}

// ToLTL normalises a quantified formula into the path formula that must hold on all paths. For A f and
// bare f that is f itself. For E f it is !f and negate is set: E f holds iff A !f does not. Named
// quantifiers are collected as trace names in order of appearance. Unnamed quantifiers add no trace, since
// no identifier can refer to a copy that has no name.
func ToLTL(c Condition) (formula Condition, negate bool, traces []string, err error) {
	formula = Expand(c)
	quantified := false
	var quant Quantifier
	for {
		pq, ok := formula.(*PathQuant)
		if !ok {
			break
		}
		if quantified && pq.Quantifier != quant {
			return nil, false, nil, fmt.Errorf("%s: mixing A and E: %w", c, ErrUnsupportedFragment)
		}
		quantified = true
		quant = pq.Quantifier
		if pq.Name != "" {
			traces = append(traces, pq.Name)
		}
		formula = pq.Sub
	}
	if !IsLTL(formula) {
		return nil, false, nil, fmt.Errorf("%s: nested path quantifier: %w", c, ErrUnsupportedFragment)
	}
	if quantified && quant == Exists {
		return &Not{Sub: formula}, true, traces, nil
	}
	return formula, false, traces, nil
}
