// Package similarity scores how alike two event names are using a Jaccard
// index over their normalized token sets. Deterministic and symmetric.
package similarity

import (
	"github.com/econcal/econcal/pkg/normalize"
)

// Score returns the Jaccard index of the two names' normalized token sets,
// in [0, 1]. Two empty names are equal by vacuous truth (1.0); exactly one
// empty name scores 0.0.
func Score(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(name string) map[string]struct{} {
	tokens := normalize.Tokens(normalize.Key(name))
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
