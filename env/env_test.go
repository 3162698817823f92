package env_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jt05610/petri/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadEnv_Defaults(t *testing.T) {
	e, err := env.LoadEnv(zap.NewNop(), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, env.Default(), e)
}

func TestLoadEnv_File(t *testing.T) {
	f := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(f, []byte("PETRI_TIMEOUT=5s\nPETRI_ALGORITHM=ndfs\nPETRI_PARTIAL_ORDER=true\nPETRI_KBOUND=12\n"), 0o644))
	for _, k := range []string{"PETRI_TIMEOUT", "PETRI_ALGORITHM", "PETRI_PARTIAL_ORDER", "PETRI_KBOUND"} {
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
	t.Setenv("PETRI_SEED", strconv.Itoa(42))

	e, err := env.LoadEnv(zap.NewNop(), f)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, e.Timeout)
	assert.Equal(t, "ndfs", e.Algorithm)
	assert.True(t, e.PartialOrder)
	assert.Equal(t, 12, e.KBound)
	assert.Equal(t, int64(42), e.Seed)
	assert.Equal(t, "automaton", e.Heuristic)
}

func TestLoadEnv_Invalid(t *testing.T) {
	t.Setenv("PETRI_KBOUND", "lots")
	_, err := env.LoadEnv(zap.NewNop(), filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "PETRI_KBOUND")
}
