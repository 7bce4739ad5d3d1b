// Package suppress implements the Repeated-Line Suppressor: it removes
// lines that recur across a large fraction of pages (header/footer/page-
// number noise) while guaranteeing it never removes a line unique to one or
// two pages.
package suppress

import (
	"math"
	"regexp"
	"strings"

	"github.com/lawdocs/pipeline/internal/model"
)

// MaxNoiseLineLen bounds how long a line may be and still be considered
// noise; long lines are almost never headers/footers.
const MaxNoiseLineLen = 120

// CompileWhitelist turns caller-supplied patterns into regexes. Ill-formed
// or empty patterns are silently dropped — never an error.
func CompileWhitelist(patterns []string) []*regexp.Regexp {
	var res []*regexp.Regexp
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		res = append(res, re)
	}
	return res
}

// Normalize collapses a line to its comparison form: trimmed, with internal
// whitespace runs collapsed to a single space.
func Normalize(line string) string {
	fields := strings.Fields(line)
	return strings.Join(fields, " ")
}

// Suppress removes noise lines from pages and returns the cleaned pages
// plus header/footer removal counts.
func Suppress(pages []string, whitelist []*regexp.Regexp) ([]string, model.CleanupStats) {
	pageCount := len(pages)
	if pageCount == 0 {
		return pages, model.CleanupStats{}
	}

	pageLines := make([][]string, pageCount)
	presentOnPage := make([]map[string]bool, pageCount)
	pagesContaining := map[string]int{}

	for i, p := range pages {
		lines := strings.Split(p, "\n")
		pageLines[i] = lines
		present := map[string]bool{}
		for _, l := range lines {
			n := Normalize(l)
			if n == "" {
				continue
			}
			present[n] = true
		}
		presentOnPage[i] = present
		for n := range present {
			pagesContaining[n]++
		}
	}

	threshold := int(math.Ceil(0.5 * float64(pageCount)))
	if threshold < 3 {
		threshold = 3
	}

	noise := map[string]bool{}
	for n, count := range pagesContaining {
		if count < threshold {
			continue
		}
		if len(n) >= MaxNoiseLineLen {
			continue
		}
		if whitelisted(n, whitelist) {
			continue
		}
		noise[n] = true
	}

	var stats model.CleanupStats
	cleaned := make([]string, pageCount)

	for i, lines := range pageLines {
		nonEmptyIdx := nonEmptyIndices(lines)
		headerSet, footerSet := boundaryIndexSets(nonEmptyIdx)

		kept := make([]string, 0, len(lines))
		for idx, l := range lines {
			n := Normalize(l)
			if n != "" && noise[n] {
				switch {
				case headerSet[idx]:
					stats.RemovedHeader++
				case footerSet[idx]:
					stats.RemovedFooter++
				}
				continue
			}
			kept = append(kept, l)
		}
		cleaned[i] = strings.Join(kept, "\n")
	}

	return cleaned, stats
}

func whitelisted(line string, whitelist []*regexp.Regexp) bool {
	for _, re := range whitelist {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func nonEmptyIndices(lines []string) []int {
	var idx []int
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			idx = append(idx, i)
		}
	}
	return idx
}

// boundaryIndexSets returns the set of line indices counted as header
// (first two non-empty lines) and footer (last two non-empty lines),
// mutually exclusive when there are four or more non-empty lines.
func boundaryIndexSets(nonEmptyIdx []int) (map[int]bool, map[int]bool) {
	header := map[int]bool{}
	footer := map[int]bool{}

	n := len(nonEmptyIdx)
	headerCount := 2
	if headerCount > n {
		headerCount = n
	}
	for i := 0; i < headerCount; i++ {
		header[nonEmptyIdx[i]] = true
	}

	footerCount := 2
	if footerCount > n {
		footerCount = n
	}
	for i := 0; i < footerCount; i++ {
		idx := nonEmptyIdx[n-1-i]
		if !header[idx] {
			footer[idx] = true
		}
	}

	return header, footer
}
