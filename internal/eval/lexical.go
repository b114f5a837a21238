package eval

import (
	"math"
	"strings"
)

// tokenize lowercases and splits on whitespace, stripping common
// punctuation from token edges.
func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// lcsLength computes the longest common subsequence length over
// tokens.
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// rougeL returns the ROUGE-L F-measure between a reference and a
// candidate text, in [0, 1].
func rougeL(reference, candidate string) float64 {
	ref := tokenize(reference)
	cand := tokenize(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	lcs := float64(lcsLength(ref, cand))
	if lcs == 0 {
		return 0
	}
	precision := lcs / float64(len(cand))
	recall := lcs / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}

// similarityScore maps a cosine similarity onto the 0-10 metric
// scale. Anti-correlated vectors count as no similarity, not a
// negative score.
func similarityScore(cos float64) float64 {
	if cos < 0 {
		return 0
	}
	return cos * 10
}

// cosine returns the cosine similarity of two vectors, 0 when either
// is zero or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
