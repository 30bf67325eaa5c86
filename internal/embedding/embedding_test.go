package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate("Spicy tomato pasta")
	b := Generate("spicy TOMATO pasta!")
	assert.Equal(t, a.Slice(), b.Slice())
	assert.Len(t, a.Slice(), Dimensions)
}

func TestGenerateIsNormalised(t *testing.T) {
	var sum float64
	for _, v := range Generate("garlic butter shrimp with lemon").Slice() {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestGenerateEmptyText(t *testing.T) {
	vec := Generate("  ").Slice()
	assert.Equal(t, float32(1), vec[0])
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"mac", "n", "cheese", "2"}, Tokenize("Mac-n-Cheese (2)"))
}
