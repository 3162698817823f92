package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment holds the defaults of the verify command.
type Environment struct {
	Timeout      time.Duration
	Seed         int64
	Algorithm    string
	Heuristic    string
	Strategy     string
	PartialOrder bool
	KBound       int
	Parallel     int
}

func Default() *Environment {
	return &Environment{
		Timeout:   time.Minute,
		Seed:      1,
		Algorithm: "tarjan",
		Heuristic: "automaton",
		Strategy:  "default",
		Parallel:  1,
	}
}

// LoadEnv reads the given .env files, or .env in the working directory, into the process environment
// and returns the PETRI_ variables on top of Default. Missing files are skipped.
func LoadEnv(logger *zap.Logger, files ...string) (*Environment, error) {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no .env file", zap.Strings("files", files))
	} else if err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	e := Default()
	lookup := func(key string, parse func(string) error) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		if err := parse(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		logger.Debug("environment", zap.String("key", key), zap.String("value", v))
		return nil
	}
	str := func(dst *string) func(string) error {
		return func(v string) error {
			*dst = v
			return nil
		}
	}
	integer := func(dst *int) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.Atoi(v)
			return err
		}
	}
	for _, f := range []struct {
		key   string
		parse func(string) error
	}{
		{"PETRI_TIMEOUT", func(v string) (err error) {
			e.Timeout, err = time.ParseDuration(v)
			return err
		}},
		{"PETRI_SEED", func(v string) (err error) {
			e.Seed, err = strconv.ParseInt(v, 10, 64)
			return err
		}},
		{"PETRI_ALGORITHM", str(&e.Algorithm)},
		{"PETRI_HEURISTIC", str(&e.Heuristic)},
		{"PETRI_STRATEGY", str(&e.Strategy)},
		{"PETRI_PARTIAL_ORDER", func(v string) (err error) {
			e.PartialOrder, err = strconv.ParseBool(v)
			return err
		}},
		{"PETRI_KBOUND", integer(&e.KBound)},
		{"PETRI_PARALLEL", integer(&e.Parallel)},
	} {
		if err := lookup(f.key, f.parse); err != nil {
			return nil, err
		}
	}
	return e, nil
}
