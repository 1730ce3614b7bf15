package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"openai", "anthropic", "gemini"} {
		p, err := r.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}

func TestRegistryResolveMiss(t *testing.T) {
	r := DefaultRegistry()

	p, err := r.Resolve("bedrock")
	assert.Nil(t, p)
	require.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "bedrock")
}

func TestRegistryNames(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"anthropic", "gemini", "openai"}, r.Names())
}
