package yaml

import (
	"context"
	"fmt"
	"io"

	pf "github.com/jt05610/petri/petrifile"
	"github.com/jt05610/petri/petrifile/v1"
	"gopkg.in/yaml.v3"
)

var _ pf.Service = (*Service)(nil)

type Service struct {
}

func (s *Service) Load(_ context.Context, r io.Reader) (*pf.Model, error) {
	var f petrifile.Petrifile
	err := yaml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode petrifile: %w", err)
	}
	return f.Model()
}

func (s *Service) Save(_ context.Context, w io.Writer, m *pf.Model) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(petrifile.FromModel(m)); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Service) Version() pf.Version {
	return pf.V1
}
