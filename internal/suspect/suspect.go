// Package suspect implements the Suspect Detector: a density heuristic that
// flags pages whose extracted text is too sparse to trust, making them
// candidates for OCR.
package suspect

import "strings"

// MinAlphaChars is the minimum non-whitespace alphabetic character count; a
// non-empty page below it is suspect only if it is also below MinAlphaRatio.
const MinAlphaChars = 40

// MinAlphaRatio is the minimum ratio of alphabetic to total (non-whitespace)
// characters; a page below it is suspect only if it is also below
// MinAlphaChars.
const MinAlphaRatio = 0.2

// IsSuspect classifies one page's raw extracted text.
func IsSuspect(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	alpha := 0
	total := 0
	for _, r := range trimmed {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		total++
		if isAlpha(r) {
			alpha++
		}
	}

	if total == 0 {
		return true
	}
	ratio := float64(alpha) / float64(total)
	return alpha < MinAlphaChars && ratio < MinAlphaRatio
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Detect classifies every page in order and returns the 1-based indices of
// suspect pages.
func Detect(pages []string) []int {
	indices := []int{}
	for i, p := range pages {
		if IsSuspect(p) {
			indices = append(indices, i+1)
		}
	}
	return indices
}
