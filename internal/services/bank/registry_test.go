package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	sandbox := NewSandboxProvider()

	t.Run("register and lookup", func(t *testing.T) {
		require.NoError(t, r.Register(Entry{
			Code:          "SANDBOX",
			Name:          "Sandbox Bank",
			AccountPrefix: "9900",
			Provider:      sandbox,
		}))

		entry, err := r.Lookup("SANDBOX")
		require.NoError(t, err)
		assert.Equal(t, "9900", entry.AccountPrefix)
	})

	t.Run("duplicate code", func(t *testing.T) {
		err := r.Register(Entry{Code: "SANDBOX", Provider: sandbox})
		assert.Error(t, err)
	})

	t.Run("missing code or provider", func(t *testing.T) {
		assert.Error(t, r.Register(Entry{Provider: sandbox}))
		assert.Error(t, r.Register(Entry{Code: "X"}))
	})

	t.Run("unknown bank", func(t *testing.T) {
		_, err := r.Lookup("NOPE")
		assert.ErrorIs(t, err, ErrUnknownBank)
	})

	t.Run("codes are sorted", func(t *testing.T) {
		require.NoError(t, r.Register(Entry{Code: "ALPHA", Provider: sandbox}))
		assert.Equal(t, []string{"ALPHA", "SANDBOX"}, r.Codes())
	})
}
