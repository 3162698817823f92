package ltl

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/checker"
	"github.com/jt05610/petri/query"
)

var ErrNoAutomaton = errors.New("no automaton for formula")

// AutomatonProvider supplies the automaton accepting exactly the runs that satisfy formula. The search
// asks for the automaton of the negation of the property it checks.
type AutomatonProvider interface {
	Automaton(formula query.Condition) (*buchi.Automaton, error)
}

// AutomatonFunc adapts a function to AutomatonProvider.
type AutomatonFunc func(formula query.Condition) (*buchi.Automaton, error)

func (f AutomatonFunc) Automaton(formula query.Condition) (*buchi.Automaton, error) {
	return f(formula)
}

// Static provides the same automaton for every formula.
func Static(a *buchi.Automaton) AutomatonProvider {
	return AutomatonFunc(func(query.Condition) (*buchi.Automaton, error) {
		if a == nil {
			return nil, ErrNoAutomaton
		}
		return a, nil
	})
}

// Search decides an LTL or HyperLTL property of a net.
type Search struct {
	net     *petri.Net
	query   query.Condition
	formula query.Condition
	negated bool
	traces  []string
	aut     *buchi.Automaton
	checker checker.Checker
	result  query.Result
}

// New normalises q into the path formula that must hold on every run and obtains from provider the
// automaton of its negation.
func New(n *petri.Net, q query.Condition, provider AutomatonProvider) (*Search, error) {
	if err := n.Compile(); err != nil {
		return nil, err
	}
	formula, negated, traces, err := query.ToLTL(q)
	if err != nil {
		return nil, err
	}
	s := &Search{
		net:     n,
		query:   q,
		formula: formula,
		negated: negated,
		traces:  traces,
	}
	s.aut, err = provider.Automaton(s.Refuted())
	if err != nil {
		return nil, fmt.Errorf("automaton for %s: %w", s.Refuted(), err)
	}
	return s, nil
}

// Formula is the path formula that must hold on every run.
func (s *Search) Formula() query.Condition { return s.formula }

// Refuted is the negation of Formula, the language of the automaton.
func (s *Search) Refuted() query.Condition { return &query.Not{Sub: s.formula} }

// Negated reports whether the answer of the search is negated, which is the case for existential
// properties.
func (s *Search) Negated() bool { return s.negated }

func (s *Search) Traces() []string { return s.traces }

func (s *Search) Automaton() *buchi.Automaton { return s.aut }

func (s *Search) numTraces() int {
	if len(s.traces) == 0 {
		return 1
	}
	return len(s.traces)
}

// Solve runs the checker selected by opts. The property holds when no run satisfies Refuted, and the
// answer is flipped for existential properties. An inconclusive check answers RUnknown.
func (s *Search) Solve(ctx context.Context, opts checker.Options) (query.Result, error) {
	c, err := checker.New(checker.Problem{
		Net:       s.net,
		Automaton: s.aut,
		Formula:   s.Refuted(),
		Traces:    s.numTraces(),
	}, opts)
	if err != nil {
		return query.RUnknown, err
	}
	s.checker = c
	switch c.Check(ctx) {
	case checker.Satisfied:
		s.result = query.ResultOf(!s.negated)
	case checker.Violated:
		s.result = query.ResultOf(s.negated)
	default:
		s.result = query.RUnknown
	}
	return s.result, nil
}

func (s *Search) Result() query.Result { return s.result }

func (s *Search) Stats() checker.Stats {
	if s.checker == nil {
		return checker.Stats{}
	}
	return s.checker.Stats()
}

// LoopIndex is the index of the first step of the repeated cycle of the trace, or -1.
func (s *Search) LoopIndex() int {
	if s.checker == nil {
		return -1
	}
	return s.checker.LoopIndex()
}

// Trace is the sequence of transitions fired by one trace of a run, petri.Deadlock for stutters.
type Trace struct {
	Name        string
	Transitions []uint32
}

// Trace returns the run found by the last Solve, one sequence per trace.
func (s *Search) Trace() []Trace {
	if s.checker == nil || len(s.checker.Trace()) == 0 {
		return nil
	}
	out := make([]Trace, s.numTraces())
	for j := range out {
		if j < len(s.traces) {
			out[j].Name = s.traces[j]
		}
		for _, step := range s.checker.Trace() {
			out[j].Transitions = append(out[j].Transitions, step[j])
		}
	}
	return out
}

type xmlToken struct {
	Age   int    `xml:"age,attr"`
	Place string `xml:"place,attr"`
}

type xmlTransition struct {
	ID     string     `xml:"id,attr"`
	Tokens []xmlToken `xml:"token"`
}

type xmlTrace struct {
	XMLName xml.Name `xml:"trace"`
	Name    string   `xml:"name,attr,omitempty"`
	Items   []any
}

type xmlTraceList struct {
	XMLName xml.Name   `xml:"trace-list"`
	Traces  []xmlTrace `xml:"trace"`
}

type xmlLoop struct {
	XMLName xml.Name `xml:"loop"`
}

type xmlDeadlock struct {
	XMLName xml.Name `xml:"deadlock"`
}

// WriteTrace writes the run found by the last Solve as XML. A trace lists the fired transitions with
// the tokens they consume, a loop element where the cycle starts and a single deadlock element for
// stutters. Several traces are wrapped in a trace-list. Nothing is written without a run.
func (s *Search) WriteTrace(w io.Writer) error {
	traces := s.Trace()
	if traces == nil {
		return nil
	}
	loop := s.LoopIndex()
	list := make([]xmlTrace, len(traces))
	for j, tr := range traces {
		x := xmlTrace{Name: tr.Name}
		if len(traces) == 1 {
			x.Name = ""
		}
		deadlocked := false
		for i, t := range tr.Transitions {
			if i == loop {
				x.Items = append(x.Items, xmlLoop{})
			}
			if t == petri.Deadlock {
				if !deadlocked {
					x.Items = append(x.Items, xmlDeadlock{})
				}
				deadlocked = true
				continue
			}
			x.Items = append(x.Items, s.transition(t))
		}
		list[j] = x
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	var err error
	if len(list) == 1 {
		err = enc.Encode(list[0])
	} else {
		err = enc.Encode(xmlTraceList{Traces: list})
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func (s *Search) transition(t uint32) any {
	type transition struct {
		XMLName xml.Name `xml:"transition"`
		xmlTransition
	}
	x := transition{xmlTransition: xmlTransition{ID: s.net.TransitionName(t)}}
	for _, w := range s.net.Preset(t) {
		for i := uint32(0); i < w.Weight; i++ {
			x.Tokens = append(x.Tokens, xmlToken{Place: s.net.Places[w.Place].Name})
		}
	}
	return x
}
