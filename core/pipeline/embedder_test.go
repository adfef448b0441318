package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitLength(t *testing.T) {
	t.Run("Scale to length one", func(t *testing.T) {
		v := unitLength([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
	})

	t.Run("Zero vector stays zero", func(t *testing.T) {
		assert.Equal(t, []float32{0, 0, 0}, unitLength([]float32{0, 0, 0}))
	})

	t.Run("Empty vector", func(t *testing.T) {
		assert.Empty(t, unitLength(nil))
	})
}

func TestDefaultEmbedder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping model download in short mode")
	}

	embed, err := DefaultEmbedder()
	if err != nil {
		t.Skipf("Skipping embedder test - model not available: %v", err)
	}

	t.Run("Embed a concept", func(t *testing.T) {
		v, err := embed("volcano")
		require.NoError(t, err)
		require.Len(t, v, EmbeddingDim)

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-3)
	})

	t.Run("Related concepts are closer than unrelated ones", func(t *testing.T) {
		volcano, err := embed("volcano")
		require.NoError(t, err)
		lava, err := embed("lava")
		require.NoError(t, err)
		spreadsheet, err := embed("spreadsheet")
		require.NoError(t, err)

		assert.Greater(t, dot(volcano, lava), dot(volcano, spreadsheet))
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
