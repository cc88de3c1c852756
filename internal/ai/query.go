package ai

import (
	"fmt"
	"math/rand"
	"strings"
)

// QueryGenerator produces image search queries from mood parameters.
// The intn field is injectable so tests can pin the template choice.
type QueryGenerator struct {
	intn func(n int) int
}

// NewQueryGenerator creates a QueryGenerator. Passing nil uses the
// default random source.
func NewQueryGenerator(intn func(n int) int) *QueryGenerator {
	if intn == nil {
		intn = rand.Intn
	}
	return &QueryGenerator{intn: intn}
}

// Generate returns one of four query phrasings built from the mood
// parameters, chosen at random.
//
// Postcondition: The returned query is non-empty whenever theme or
// keywords are non-empty.
func (g *QueryGenerator) Generate(params MoodParams) string {
	keywords := strings.Join(params.Keywords, " ")
	queries := []string{
		fmt.Sprintf("%s %s %s mood", params.Theme, params.Temperature, params.Energy),
		fmt.Sprintf("%s %s lighting", keywords, params.Temperature),
		fmt.Sprintf("%s aesthetic %s energy", params.Theme, params.Energy),
		fmt.Sprintf("%s %s atmosphere", keywords, params.Temperature),
	}
	return strings.TrimSpace(queries[g.intn(len(queries))])
}
