package dedup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// caseFolder folds case for signature and similarity normalization.
// cases.Fold handles full Unicode case folding, which matters for
// benchmarks that mix typographic variants into policy names.
var caseFolder = cases.Fold()

// normalize produces the canonical form used for signatures and string
// distance: NFKC-normalized, case-folded, quotes stripped, whitespace
// collapsed to single spaces.
func normalize(s string) string {
	s = norm.NFKC.String(s)
	s = caseFolder.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '‘', '’', '“', '”':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// levenshtein returns the edit distance between two rune slices using the
// two-row dynamic programming form, so memory stays linear in the shorter
// input.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// minInt returns the smallest of three ints.
func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// stringSimilarity returns 1 - normalized Levenshtein distance between two
// already-normalized strings, in [0,1]. Two empty strings are not similar:
// similarity without content is meaningless for dedup purposes.
func stringSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}
