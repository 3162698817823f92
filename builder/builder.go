package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jt05610/petri/petrifile"
	"gopkg.in/yaml.v3"
)

var ErrNoService = errors.New("no service for file")

// Builder finds petri files by name in its search directories and loads them with the service
// registered for their extension and version.
type Builder struct {
	SearchDirs []string
	seen       map[string]*petrifile.Model
	services   map[string]map[petrifile.Version]petrifile.Service
}

func NewBuilder(dirs ...string) *Builder {
	if dirs == nil {
		dirs = []string{"."}
	}
	return &Builder{
		SearchDirs: dirs,
		seen:       make(map[string]*petrifile.Model),
		services:   make(map[string]map[petrifile.Version]petrifile.Service),
	}
}

func (b *Builder) WithService(ext string, srv petrifile.Service) *Builder {
	ext = strings.TrimPrefix(ext, ".")
	if _, ok := b.services[ext]; !ok {
		b.services[ext] = make(map[petrifile.Version]petrifile.Service)
	}
	b.services[ext][srv.Version()] = srv
	return b
}

func (b *Builder) WithSearchDirs(dirs ...string) *Builder {
	b.SearchDirs = append(b.SearchDirs, dirs...)
	return b
}

// find resolves f as a path, then as a name in each search dir, with or without a registered extension.
func (b *Builder) find(f string) (string, error) {
	if _, err := os.Stat(f); err == nil {
		return f, nil
	}
	names := []string{f}
	if filepath.Ext(f) == "" {
		for ext := range b.services {
			names = append(names, f+"."+ext)
		}
	}
	for _, dir := range b.SearchDirs {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", f, os.ErrNotExist)
}

func version(path string) (petrifile.Version, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var header struct {
		Petri petrifile.Version `yaml:"petri"`
	}
	if err := yaml.Unmarshal(b, &header); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return header.Petri, nil
}

func (b *Builder) service(path string) (petrifile.Service, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s, ok := b.services[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoService)
	}
	ver, err := version(path)
	if err != nil {
		return nil, err
	}
	srv, ok := s[ver]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", path, ver, petrifile.ErrUnsupportedVersion)
	}
	return srv, nil
}

// Build loads the model named f. Models are loaded once per path.
func (b *Builder) Build(ctx context.Context, f string) (*petrifile.Model, error) {
	path, err := b.find(f)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if m, seen := b.seen[path]; seen {
		return m, nil
	}
	srv, err := b.service(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	m, err := srv.Load(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b.seen[path] = m
	return m, nil
}
