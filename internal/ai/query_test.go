package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestQueryGenerator_Templates(t *testing.T) {
	params := MoodParams{
		Energy:      "high",
		Temperature: "warm",
		Theme:       "autumn forest",
		Keywords:    []string{"leaves", "golden"},
	}

	want := []string{
		"autumn forest warm high mood",
		"leaves golden warm lighting",
		"autumn forest aesthetic high energy",
		"leaves golden warm atmosphere",
	}
	for i, expected := range want {
		g := NewQueryGenerator(func(n int) int { return i })
		assert.Equal(t, expected, g.Generate(params))
	}
}

func TestQueryGenerator_DefaultSource(t *testing.T) {
	g := NewQueryGenerator(nil)
	q := g.Generate(MoodParams{Theme: "ocean", Energy: "low", Temperature: "cool", Keywords: []string{"waves"}})
	assert.NotEmpty(t, q)
}

// Property: generated queries never carry leading or trailing whitespace,
// even with empty themes or keyword lists.
func TestPropertyQueryTrimmed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		params := MoodParams{
			Energy:      rapid.SampledFrom([]string{"", "low", "high"}).Draw(t, "energy"),
			Temperature: rapid.SampledFrom([]string{"", "warm", "cool"}).Draw(t, "temperature"),
			Theme:       rapid.SampledFrom([]string{"", "city", "forest"}).Draw(t, "theme"),
			Keywords:    rapid.SliceOfN(rapid.SampledFrom([]string{"mist", "neon"}), 0, 3).Draw(t, "keywords"),
		}
		idx := rapid.IntRange(0, 3).Draw(t, "idx")
		g := NewQueryGenerator(func(n int) int { return idx })
		q := g.Generate(params)
		if len(q) > 0 && (q[0] == ' ' || q[len(q)-1] == ' ') {
			t.Fatalf("query %q has surrounding whitespace", q)
		}
	})
}
