package draft

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// fillerWords are elided before scoring so "open, um, the draft" still
// matches a pattern of "open the draft".
var fillerWords = map[string]bool{
	"um": true, "uh": true, "umm": true, "uhh": true,
	"like": true, "so": true, "please": true,
}

type token struct {
	norm  string
	start int
	end   int
}

// tokenize splits s on whitespace, trims surrounding punctuation, and
// drops filler words, recording each surviving token's original character
// span so matches can be reported with offsets into the untouched text.
func tokenize(s string) []token {
	var tokens []token
	i, n := 0, len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		j := i
		for j < n && !isSpace(s[j]) {
			j++
		}
		norm := strings.ToLower(strings.Trim(s[i:j], ".,!?;:\"'"))
		if norm != "" && !fillerWords[norm] {
			tokens = append(tokens, token{norm: norm, start: i, end: j})
		}
		i = j
	}
	return tokens
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func normalizedWords(s string) []string {
	toks := tokenize(s)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.norm
	}
	return out
}

// tokenOverlapRatio is the fraction of pattern tokens found, in any order,
// among the candidate tokens (each candidate token usable at most once).
func tokenOverlapRatio(pattern, candidate []string) float64 {
	if len(pattern) == 0 {
		return 0
	}
	used := make([]bool, len(candidate))
	matched := 0
	for _, pt := range pattern {
		for i, ct := range candidate {
			if !used[i] && ct == pt {
				used[i] = true
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(pattern))
}

func levenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(d)/float64(maxLen)
}

// scoreTokens combines token-overlap with, for short (<=3 token) patterns,
// a normalized Levenshtein ratio over the joined words — Levenshtein is
// only informative on short phrases, where a single mis-transcribed word
// otherwise tanks the overlap ratio.
func scoreTokens(pattern, candidate []string) float64 {
	overlap := tokenOverlapRatio(pattern, candidate)
	if len(pattern) > 3 {
		return overlap
	}
	lev := levenshteinRatio(strings.Join(pattern, " "), strings.Join(candidate, " "))
	if lev > overlap {
		return lev
	}
	return overlap
}

// candidateLengths returns the token-window sizes considered for a pattern
// with base tokens, tolerating one extra or missing token.
func candidateLengths(base int) []int {
	lengths := []int{base}
	if base > 1 {
		lengths = append(lengths, base-1)
	}
	lengths = append(lengths, base+1)
	return lengths
}

// matcher scans working text for the best match against a declared-order
// pattern list.
type matcher struct {
	threshold float64
}

func newMatcher(threshold float64) *matcher {
	return &matcher{threshold: threshold}
}

type matchResult struct {
	Mark       TextMark
	PatternIdx int
}

// find scans workingText left to right for the earliest token position at
// which some pattern scores >= threshold, breaking ties by highest score
// then by declaration order.
func (m *matcher) find(workingText string, patterns []string) (matchResult, bool) {
	tokens := tokenize(workingText)
	patternTokens := make([][]string, len(patterns))
	for i, p := range patterns {
		patternTokens[i] = normalizedWords(p)
	}

	for start := 0; start < len(tokens); start++ {
		bestEnd, bestScore, bestPat := -1, -1.0, -1

		for patIdx, pTokens := range patternTokens {
			if len(pTokens) == 0 {
				continue
			}
			for _, length := range candidateLengths(len(pTokens)) {
				end := start + length
				if length <= 0 || end > len(tokens) {
					continue
				}
				candidate := make([]string, length)
				for i := 0; i < length; i++ {
					candidate[i] = tokens[start+i].norm
				}
				s := scoreTokens(pTokens, candidate)
				if s < m.threshold {
					continue
				}
				// A window whose first token adds nothing to its score is
				// the same match seen one token early; the next start
				// position reports it.
				if length > 1 && scoreTokens(pTokens, candidate[1:]) >= s {
					continue
				}
				if s > bestScore || (s == bestScore && patIdx < bestPat) {
					bestEnd, bestScore, bestPat = end, s, patIdx
				}
			}
		}

		if bestEnd > 0 {
			a := tokens[start].start
			b := tokens[bestEnd-1].end
			return matchResult{
				Mark:       TextMark{Start: a, End: b, Text: workingText[a:b]},
				PatternIdx: bestPat,
			}, true
		}
	}
	return matchResult{}, false
}
