package petrifile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/ltl"
	"github.com/jt05610/petri/query"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported petrifile version")
	ErrUnknownQuery       = errors.New("unknown query")
)

// Model is a net together with the named propositions and the queries checked against it.
type Model struct {
	Net          *petri.Net
	Propositions map[string]string
	Queries      []*Query
}

// Query finds a query by name.
func (m *Model) Query(name string) (*Query, error) {
	for _, q := range m.Queries {
		if q.Name == name {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownQuery)
}

// Query is a formula and, when the file supplies one, the automaton of its negated path formula.
type Query struct {
	Name      string
	Source    string
	Formula   query.Condition
	Traces    []string
	Automaton *buchi.Automaton
}

// Provider supplies the automaton stored with the query to an ltl search.
func (q *Query) Provider() ltl.AutomatonProvider {
	return ltl.Static(q.Automaton)
}

type Service interface {
	Load(ctx context.Context, r io.Reader) (*Model, error)
	Save(ctx context.Context, w io.Writer, m *Model) error
	Version() Version
}

type Version string

const (
	V1 Version = "v1"
)
