package match

import "sort"

// DefaultSuggestionLimit caps how many did-you-mean candidates a single
// diagnostic carries.
const DefaultSuggestionLimit = 3

// minSimilarity is the floor below which a candidate is considered noise
// rather than a plausible misspelling.
const minSimilarity = 0.5

// Suggest ranks candidates by similarity to the input and returns up to
// limit names that plausibly correct a misspelling. Exact matches are
// excluded: a reference that resolves does not need suggestions. Ties are
// broken alphabetically so output stays deterministic.
func Suggest(input string, candidates []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	type scored struct {
		name  string
		score float64
	}

	var ranked []scored

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == input {
			continue
		}

		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}

		score := Similarity(input, c)
		if score < minSimilarity {
			continue
		}

		ranked = append(ranked, scored{name: c, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}

		return ranked[i].name < ranked[j].name
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.name)
	}

	return out
}
