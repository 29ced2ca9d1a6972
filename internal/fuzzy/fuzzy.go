// Package fuzzy ranks candidate strings against a free-text query.
//
// The similarity metric is a token-set ratio: both strings are lowercased,
// split on non-alphanumeric runs, and compared via three reconstructed
// strings (shared tokens, shared+left-only, shared+right-only) scored by
// normalized Levenshtein distance. Scores land in 0..100 and a string
// always scores 100 against itself.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Result pairs a candidate with its similarity score.
type Result struct {
	Candidate string
	Score     int
}

// Rank scores every candidate against query and returns the top k,
// highest score first. Ties keep the candidates' original order. k <= 0
// or an empty candidate list yields an empty slice. The input slice is
// never mutated.
func Rank(query string, candidates []string, k int) []Result {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{Candidate: c, Score: Score(query, c)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Score computes the token-set similarity of two strings in 0..100.
func Score(a, b string) int {
	ta := tokens(a)
	tb := tokens(b)

	if len(ta) == 0 || len(tb) == 0 {
		if len(ta) == len(tb) {
			return 100
		}
		return 0
	}

	shared, onlyA := split(ta, tb)
	_, onlyB := split(tb, ta)

	base := strings.Join(shared, " ")
	left := joinNonEmpty(base, strings.Join(onlyA, " "))
	right := joinNonEmpty(base, strings.Join(onlyB, " "))

	best := ratio(base, left)
	if r := ratio(base, right); r > best {
		best = r
	}
	if r := ratio(left, right); r > best {
		best = r
	}
	return best
}

// ratio is a normalized edit-distance score: 100 for identical strings,
// 0 for fully dissimilar ones.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return (100*(longest-d) + longest/2) / longest
}

// tokens lowercases s, treats every non-alphanumeric rune as a separator,
// and returns the sorted, de-duplicated token list.
func tokens(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	fields := strings.Fields(cleaned)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// split partitions a into (tokens also in b, tokens only in a); both
// partitions stay sorted because a is sorted.
func split(a, b []string) (shared, only []string) {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	for _, t := range a {
		if _, ok := inB[t]; ok {
			shared = append(shared, t)
		} else {
			only = append(only, t)
		}
	}
	return shared, only
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
