// Package clean implements the Law-Aware Cleaner: hyphenation repair,
// soft-wrap joining, page-number stripping, and whitespace normalization,
// applied in that fixed order.
package clean

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lawdocs/pipeline/internal/heading"
	"github.com/lawdocs/pipeline/internal/model"
)

var (
	pageNumberLine = regexp.MustCompile(`^\s*(\d{1,4})\s*$`)
	listMarker     = regexp.MustCompile(`^(\-|\*|\d+\.|\(\d+\)|[a-zA-Z]\.)\s`)
	sentenceEnd    = regexp.MustCompile(`[.:;?!)]\s*$`)
	lowerStart     = regexp.MustCompile(`^[a-z]`)
)

// Clean runs the fixed cleanup order over each page independently, then
// concatenates pages with a single newline.
func Clean(pages []string) (string, model.CleanupStats) {
	var stats model.CleanupStats
	cleanedPages := make([]string, len(pages))

	for i, p := range pages {
		pageIndex := i + 1
		lines := strings.Split(p, "\n")

		lines, fixed := hyphenationRepair(lines)
		stats.HyphensFixed += fixed

		lines = softWrapJoin(lines)

		lines = stripPageNumbers(lines, pageIndex)

		lines = normalizeWhitespace(lines)

		cleanedPages[i] = strings.Join(lines, "\n")
	}

	return strings.Join(cleanedPages, "\n"), stats
}

// hyphenationRepair splices a line ending in "-" with the next non-empty
// line when that line begins with a lowercase letter.
func hyphenationRepair(lines []string) ([]string, int) {
	var out []string
	fixed := 0

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmedRight := strings.TrimRight(line, " \t")

		if strings.HasSuffix(trimmedRight, "-") {
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			if j < len(lines) && lowerStart.MatchString(strings.TrimSpace(lines[j])) {
				base := strings.TrimSuffix(trimmedRight, "-")
				rest := strings.TrimSpace(lines[j])
				out = append(out, base+rest)
				fixed++
				i = j + 1
				continue
			}
		}

		out = append(out, line)
		i++
	}

	return out, fixed
}

// softWrapJoin joins a line with the next when the line doesn't end at a
// sentence boundary and the continuation is plausibly the same sentence.
func softWrapJoin(lines []string) []string {
	var out []string

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			out = append(out, line)
			i++
			continue
		}

		if !sentenceEnd.MatchString(trimmed) {
			j := i + 1
			if j < len(lines) {
				next := strings.TrimSpace(lines[j])
				joinable := next != "" &&
					(lowerStart.MatchString(next) || isContinuationMarker(next)) &&
					!heading.IsLandmarkStart(next) &&
					!listMarker.MatchString(next)
				if joinable {
					out = append(out, trimmed+" "+next)
					i += 2
					continue
				}
			}
		}

		out = append(out, line)
		i++
	}

	return out
}

func isContinuationMarker(s string) bool {
	return strings.HasPrefix(s, "dan ") || strings.HasPrefix(s, "atau ") || strings.HasPrefix(s, "yang ")
}

// stripPageNumbers removes lines that are entirely digits whose value is
// within ±5 of the page index.
func stripPageNumbers(lines []string, pageIndex int) []string {
	var out []string
	for _, line := range lines {
		m := pageNumberLine.FindStringSubmatch(line)
		if m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				if abs(n-pageIndex) <= 5 {
					continue
				}
			}
		}
		out = append(out, line)
	}
	return out
}

// normalizeWhitespace collapses intra-line whitespace runs to a single
// space and collapses three-or-more consecutive blank lines to exactly two.
func normalizeWhitespace(lines []string) []string {
	var out []string
	blankRun := 0

	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			blankRun++
			if blankRun <= 2 {
				out = append(out, "")
			}
			continue
		}
		blankRun = 0
		out = append(out, collapsed)
	}

	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
