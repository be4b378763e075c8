package signal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWeightsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileWeightProvider(t *testing.T) {
	t.Run("Should load weights from a well-formed file", func(t *testing.T) {
		path := writeWeightsFile(t, `{
			"default_behavior_weights": {
				"finance": 1.0,
				"game": 2.5,
				"gurukul": 1.3
			}
		}`)
		p := NewFileWeightProvider(path)
		weights := p.Weights(context.Background())
		assert.Equal(t, map[string]float64{
			"finance": 1.0,
			"game":    2.5,
			"gurukul": 1.3,
		}, weights)
	})

	t.Run("Should fall back to defaults when the file is missing", func(t *testing.T) {
		p := NewFileWeightProvider(filepath.Join(t.TempDir(), "absent.json"))
		assert.Equal(t, DefaultWeights(), p.Weights(context.Background()))
	})

	t.Run("Should fall back to defaults on malformed JSON", func(t *testing.T) {
		path := writeWeightsFile(t, `{not valid`)
		p := NewFileWeightProvider(path)
		assert.Equal(t, DefaultWeights(), p.Weights(context.Background()))
	})

	t.Run("Should fall back to defaults when the weights mapping is absent", func(t *testing.T) {
		path := writeWeightsFile(t, `{"something_else": 1}`)
		p := NewFileWeightProvider(path)
		assert.Equal(t, DefaultWeights(), p.Weights(context.Background()))
	})

	t.Run("Should fall back to defaults when a weight is not numeric", func(t *testing.T) {
		path := writeWeightsFile(t, `{"default_behavior_weights": {"game": "heavy"}}`)
		p := NewFileWeightProvider(path)
		assert.Equal(t, DefaultWeights(), p.Weights(context.Background()))
	})

	t.Run("Should pick up file changes between calls", func(t *testing.T) {
		path := writeWeightsFile(t, `{"default_behavior_weights": {"game": 1.2}}`)
		p := NewFileWeightProvider(path)
		require.Equal(t, map[string]float64{"game": 1.2}, p.Weights(context.Background()))

		require.NoError(t, os.WriteFile(path, []byte(`{"default_behavior_weights": {"game": 9.9}}`), 0o644))
		assert.Equal(t, map[string]float64{"game": 9.9}, p.Weights(context.Background()))
	})
}

func TestDefaultWeights(t *testing.T) {
	t.Run("Should carry the built-in module weighting", func(t *testing.T) {
		weights := DefaultWeights()
		assert.Equal(t, 1.0, weights[ModuleFinance])
		assert.Equal(t, 1.2, weights[ModuleGame])
		assert.Equal(t, 1.3, weights[ModuleGurukul])
		assert.Equal(t, 1.1, weights[ModuleInsight])
	})
}

func TestStaticWeightProvider(t *testing.T) {
	t.Run("Should default to the built-in table when given nil", func(t *testing.T) {
		p := NewStaticWeightProvider(nil)
		assert.Equal(t, DefaultWeights(), p.Weights(context.Background()))
	})
}
