package mock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/itemforge/core"
)

func TestDeterministicVector(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := DeterministicVector("a contract dispute over orange crates", 384)
		b := DeterministicVector("a contract dispute over orange crates", 384)
		assert.Equal(t, a, b)
	})

	t.Run("unit length", func(t *testing.T) {
		v := DeterministicVector("a landlord withholds a security deposit", 384)
		var sumSquares float64
		for _, x := range v {
			sumSquares += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)
	})

	t.Run("distinct texts are dissimilar", func(t *testing.T) {
		// Distinct texts must land well clear of the 0.75 diversity gate so
		// default-mock pipelines accept on the first attempt.
		texts := []string{
			"a painter is promised five dollars for a mural",
			"a shipper misroutes a container of machine parts",
			"a tenant negotiates a lease renewal mid-term",
			"a vendor sells a crate of oranges on credit",
		}
		for i := 0; i < len(texts); i++ {
			for j := i + 1; j < len(texts); j++ {
				sim := core.CosineSimilarity(
					DeterministicVector(texts[i], 384),
					DeterministicVector(texts[j], 384))
				assert.Less(t, math.Abs(float64(sim)), 0.5,
					"texts %d and %d too similar", i, j)
			}
		}
	})
}
