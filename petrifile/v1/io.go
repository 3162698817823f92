package petrifile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/petrifile"
	"github.com/jt05610/petri/query"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownPlace = errors.New("unknown place")
	ErrNotMapping   = errors.New("expected a mapping")
	ErrNoStates     = errors.New("automaton has no states")
)

// Entry is one key of an Ordered mapping.
type Entry[V any] struct {
	Key   string
	Value V
}

// Ordered is a yaml mapping that keeps the order of its keys, so that places and transitions get the
// indices in which the file lists them.
type Ordered[V any] []Entry[V]

func (o *Ordered[V]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %w", value.Line, ErrNotMapping)
	}
	*o = make(Ordered[V], 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var e Entry[V]
		if err := value.Content[i].Decode(&e.Key); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&e.Value); err != nil {
			return fmt.Errorf("%s: %w", e.Key, err)
		}
		*o = append(*o, e)
	}
	return nil
}

func (o Ordered[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for _, e := range o {
		var k, v yaml.Node
		if err := k.Encode(e.Key); err != nil {
			return nil, err
		}
		if err := v.Encode(e.Value); err != nil {
			return nil, err
		}
		if v.Kind != yaml.ScalarNode {
			node.Style = 0
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

func (o Ordered[V]) Map() map[string]V {
	m := make(map[string]V, len(o))
	for _, e := range o {
		m[e.Key] = e.Value
	}
	return m
}

type Transition struct {
	In      Ordered[uint32] `yaml:"in,omitempty"`
	Out     Ordered[uint32] `yaml:"out,omitempty"`
	Inhibit Ordered[uint32] `yaml:"inhibit,omitempty"`
}

type Edge struct {
	From  uint32 `yaml:"from"`
	To    uint32 `yaml:"to"`
	Guard string `yaml:"guard"`
}

// Automaton accepts the runs that violate the path formula of its query.
type Automaton struct {
	States    int      `yaml:"states,omitempty"`
	Initial   uint32   `yaml:"initial"`
	Accepting []uint32 `yaml:"accepting,flow"`
	Edges     []Edge   `yaml:"edges"`
}

type Query struct {
	Name      string     `yaml:"name"`
	Formula   string     `yaml:"formula"`
	Automaton *Automaton `yaml:"automaton,omitempty"`
}

type Petrifile struct {
	Petri        petrifile.Version   `yaml:"petri"`
	Name         string              `yaml:"name"`
	Places       Ordered[uint32]     `yaml:"places"`
	Transitions  Ordered[Transition] `yaml:"transitions"`
	Propositions Ordered[string]     `yaml:"propositions,omitempty"`
	Queries      []Query             `yaml:"queries,omitempty"`
}

func (p *Petrifile) Net() (*petri.Net, error) {
	n := petri.NewNet(p.Name)
	places := make(map[string]*petri.Place, len(p.Places))
	for _, e := range p.Places {
		pl := petri.NewPlace(e.Key, e.Value)
		places[e.Key] = pl
		n = n.WithPlaces(pl)
	}
	lookup := func(t, name string) (*petri.Place, error) {
		pl, ok := places[name]
		if !ok {
			return nil, fmt.Errorf("transition %s: %s: %w", t, name, ErrUnknownPlace)
		}
		return pl, nil
	}
	for _, e := range p.Transitions {
		t := petri.NewTransition(e.Key)
		n = n.WithTransitions(t)
		for _, in := range e.Value.In {
			pl, err := lookup(e.Key, in.Key)
			if err != nil {
				return nil, err
			}
			n = n.WithArcs(petri.NewArc(pl, t, in.Value))
		}
		for _, out := range e.Value.Out {
			pl, err := lookup(e.Key, out.Key)
			if err != nil {
				return nil, err
			}
			n = n.WithArcs(petri.NewArc(t, pl, out.Value))
		}
		for _, inh := range e.Value.Inhibit {
			pl, err := lookup(e.Key, inh.Key)
			if err != nil {
				return nil, err
			}
			n = n.WithArcs(petri.NewInhibitor(pl, t, inh.Value))
		}
	}
	if err := n.Compile(); err != nil {
		return nil, fmt.Errorf("net %s: %w", p.Name, err)
	}
	return n, nil
}

// Model builds the net and resolves every query formula and automaton guard against it.
func (p *Petrifile) Model() (*petrifile.Model, error) {
	if p.Petri != petrifile.V1 {
		return nil, fmt.Errorf("%q: %w", p.Petri, petrifile.ErrUnsupportedVersion)
	}
	n, err := p.Net()
	if err != nil {
		return nil, err
	}
	m := &petrifile.Model{
		Net:          n,
		Propositions: p.Propositions.Map(),
		Queries:      make([]*petrifile.Query, 0, len(p.Queries)),
	}
	for _, q := range p.Queries {
		mq, err := p.query(m, q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Name, err)
		}
		m.Queries = append(m.Queries, mq)
	}
	return m, nil
}

func (p *Petrifile) query(m *petrifile.Model, q Query) (*petrifile.Query, error) {
	parser := query.NewParser(m.Net, m.Propositions)
	f, err := parser.Parse(q.Formula)
	if err != nil {
		return nil, err
	}
	out := &petrifile.Query{Name: q.Name, Source: q.Formula, Formula: f}
	// formulas outside the fragment are reported by the search
	if _, _, traces, err := query.ToLTL(f); err == nil {
		out.Traces = traces
	}
	if q.Automaton == nil {
		return out, nil
	}
	out.Automaton, err = q.Automaton.Build(parser.WithTraces(out.Traces...))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Automaton) states() int {
	n := max(a.States, int(a.Initial)+1)
	for _, s := range a.Accepting {
		n = max(n, int(s)+1)
	}
	for _, e := range a.Edges {
		n = max(n, int(e.From)+1, int(e.To)+1)
	}
	return n
}

func (a *Automaton) Build(p *query.Parser) (*buchi.Automaton, error) {
	if len(a.Edges) == 0 && a.States == 0 {
		return nil, ErrNoStates
	}
	out := buchi.New(a.states())
	out.Initial = a.Initial
	for _, s := range a.Accepting {
		if err := out.SetAccepting(s); err != nil {
			return nil, err
		}
	}
	for _, e := range a.Edges {
		g, err := out.ParseGuard(p, e.Guard)
		if err != nil {
			return nil, fmt.Errorf("edge %d -> %d: %w", e.From, e.To, err)
		}
		if err := out.AddEdge(e.From, e.To, g); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FromModel is the inverse of Model. Guards are written as the disjunction of their satisfying paths.
func FromModel(m *petrifile.Model) *Petrifile {
	n := m.Net
	p := &Petrifile{
		Petri:       petrifile.V1,
		Name:        n.Name,
		Places:      make(Ordered[uint32], 0, len(n.Places)),
		Transitions: make(Ordered[Transition], len(n.Transitions)),
	}
	for _, pl := range n.Places {
		p.Places = append(p.Places, Entry[uint32]{Key: pl.Name, Value: pl.Initial})
	}
	index := make(map[*petri.Transition]int, len(n.Transitions))
	for i, t := range n.Transitions {
		p.Transitions[i].Key = t.Name
		index[t] = i
	}
	for _, a := range n.Arcs {
		switch src := a.Src.(type) {
		case *petri.Place:
			t := &p.Transitions[index[a.Dest.(*petri.Transition)]].Value
			e := Entry[uint32]{Key: src.Name, Value: a.Weight}
			if a.Inhibitor {
				t.Inhibit = append(t.Inhibit, e)
			} else {
				t.In = append(t.In, e)
			}
		case *petri.Transition:
			t := &p.Transitions[index[src]].Value
			t.Out = append(t.Out, Entry[uint32]{Key: a.Dest.String(), Value: a.Weight})
		}
	}
	keys := make([]string, 0, len(m.Propositions))
	for k := range m.Propositions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p.Propositions = append(p.Propositions, Entry[string]{Key: k, Value: m.Propositions[k]})
	}
	for _, q := range m.Queries {
		fq := Query{Name: q.Name, Formula: q.Source}
		if fq.Formula == "" && q.Formula != nil {
			fq.Formula = q.Formula.String()
		}
		if q.Automaton != nil {
			fq.Automaton = automaton(q.Automaton)
		}
		p.Queries = append(p.Queries, fq)
	}
	return p
}

func automaton(a *buchi.Automaton) *Automaton {
	out := &Automaton{States: a.Len(), Initial: a.Initial, Accepting: []uint32{}}
	for s := 0; s < a.Len(); s++ {
		if a.IsAccepting(uint32(s)) {
			out.Accepting = append(out.Accepting, uint32(s))
		}
		for _, e := range a.Edges(uint32(s)) {
			out.Edges = append(out.Edges, Edge{From: uint32(s), To: e.Dest, Guard: a.GuardString(e.Guard)})
		}
	}
	return out
}
