package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register the serve command", func(t *testing.T) {
		root := RootCmd()
		cmd, _, err := root.Find([]string{"serve"})
		require.NoError(t, err)
		assert.Equal(t, "serve", cmd.Name())
	})

	t.Run("Should expose logging and config flags", func(t *testing.T) {
		root := RootCmd()
		for _, name := range []string{"config", "env-file", "log-level", "log-json", "log-source"} {
			assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag %s", name)
		}
	})
}
