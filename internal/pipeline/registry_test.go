package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveFirstMatchWins checks declaration order precedence.
func TestResolveFirstMatchWins(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("x", "text/.*", appendStep{"text"})
	reg.MustRegister("x", ".*", appendStep{"any"})
	reg.MustRegister("x", "text/plain", appendStep{"shadowed"})

	steps, err := reg.Resolve("x", "text/plain; charset=utf-8")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, appendStep{"text"}, steps[0])

	steps, err = reg.Resolve("x", "image/png")
	require.NoError(t, err)
	assert.Equal(t, appendStep{"any"}, steps[0])

	assert.Equal(t, []string{"text/.*", ".*", "text/plain"}, reg.Patterns("x"))
}

// TestRegisterRejectsBadPattern leaves the registry untouched.
func TestRegisterRejectsBadPattern(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register("x", "text/(", appendStep{"a"}))
	require.Error(t, reg.Register("x", "", appendStep{"a"}))
	require.Error(t, reg.Register("", ".*", appendStep{"a"}))
	assert.Empty(t, reg.Actions())

	assert.Panics(t, func() { reg.MustRegister("x", "[") })
}

// TestRegistryClear drops only the named action.
func TestRegistryClear(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("b", ".*")
	reg.MustRegister("a", ".*")
	assert.Equal(t, []string{"a", "b"}, reg.Actions())

	reg.Clear("a")
	_, err := reg.Resolve("a", "text/plain")
	require.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, []string{"b"}, reg.Actions())
}

// TestRegisterCopiesSteps protects entries from caller mutation.
func TestRegisterCopiesSteps(t *testing.T) {
	reg := NewRegistry()
	steps := []Step{appendStep{"a"}}
	reg.MustRegister("x", ".*", steps...)
	steps[0] = appendStep{"mutated"}

	got, err := reg.Resolve("x", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, appendStep{"a"}, got[0])
}
