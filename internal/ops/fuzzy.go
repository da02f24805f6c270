package ops

import "sort"

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rows of the full matrix are enough.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// suggest returns the candidates within MaxFuzzyDistance of name, closest
// first. key maps a candidate to the form compared against name.
func suggest(name string, candidates []string, key func(string) string) []string {
	type suggestion struct {
		name     string
		distance int
	}

	var out []suggestion
	for _, c := range candidates {
		if d := levenshteinDistance(name, key(c)); d <= MaxFuzzyDistance {
			out = append(out, suggestion{c, d})
		}
	}

	// Sort by distance (closest first)
	sort.Slice(out, func(i, j int) bool {
		if out[i].distance == out[j].distance {
			return out[i].name < out[j].name
		}
		return out[i].distance < out[j].distance
	})

	names := make([]string, len(out))
	for i, s := range out {
		names[i] = s.name
	}
	return names
}
