// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil provides the text primitives shared by scoring, the
// quality gate, and publishing: tokenization, Jaccard similarity, slugs,
// and word counting.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

// Tokenize lowercases s, strips punctuation, and splits on whitespace.
// The result never contains empty strings.
func Tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// Jaccard returns the Jaccard coefficient of the token sets of a and b:
// |A∩B| / |A∪B|, in [0,1]. It is symmetric and Jaccard(a, a) == 1 for any
// non-empty a. Two empty inputs score 0. The computation is linear in the
// combined token count, so it stays practical against a growing corpus.
func Jaccard(a, b string) float64 {
	setA := tokenSet(Tokenize(a))
	setB := tokenSet(Tokenize(b))

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// MaxJaccard returns the highest similarity between s and any candidate.
// An empty candidate list scores 0.
func MaxJaccard(s string, candidates []string) float64 {
	highest := 0.0
	for _, c := range candidates {
		if sim := Jaccard(s, c); sim > highest {
			highest = sim
		}
	}
	return highest
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Slugify derives a URL slug from a title: lowercase, alphanumeric runs
// joined by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

var (
	codeFencePattern  = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern = regexp.MustCompile("`[^`]*`")
)

// CountWords counts body words after stripping fenced code blocks, inline
// code, and non-letter/digit punctuation.
func CountWords(markdown string) int {
	stripped := codeFencePattern.ReplaceAllString(markdown, " ")
	stripped = inlineCodePattern.ReplaceAllString(stripped, " ")
	return len(Tokenize(stripped))
}
