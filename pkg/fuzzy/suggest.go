// Package fuzzy ranks dotted string paths by similarity to a misspelled one.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the minimum similarity a suggestion needs.
const DefaultThreshold = 0.6

type Suggester struct {
	threshold float64
}

// NewSuggester creates a suggester. A threshold outside (0, 1] uses DefaultThreshold.
func NewSuggester(threshold float64) *Suggester {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Suggester{threshold: threshold}
}

// Fold lowercases text and strips combining marks.
func (s *Suggester) Fold(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.TrimSpace(result.String())
}

// CalculateSimilarity returns the longest common subsequence of s1 and s2
// relative to the longer of the two.
func (s *Suggester) CalculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

type scored struct {
	path  string
	score float64
}

// Suggest returns up to limit candidates at least as similar to query as the
// threshold, best first. Ties keep candidate order.
func (s *Suggester) Suggest(query string, candidates []string, limit int) []string {
	if limit <= 0 || query == "" {
		return nil
	}

	folded := s.Fold(query)
	var matches []scored
	for _, candidate := range candidates {
		score := s.CalculateSimilarity(folded, s.Fold(candidate))
		if score >= s.threshold {
			matches = append(matches, scored{path: candidate, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.path
	}
	return result
}

func longestCommonSubsequence(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
