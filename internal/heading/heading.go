// Package heading implements the Heading Promoter: a small explicit state
// machine that recognizes legal landmarks and rewrites them into canonical
// Markdown headings.
package heading

import (
	"regexp"
	"strings"

	"github.com/lawdocs/pipeline/internal/model"
)

type state int

const (
	stateNormal state = iota
	stateExplanation
)

var (
	babPattern        = regexp.MustCompile(`^BAB\s+([IVXLCDM]+)\s*$`)
	pasalPattern      = regexp.MustCompile(`^Pasal\s+(\d{1,3}[A-Za-z]?)\s*$`)
	menimbangPattern  = regexp.MustCompile(`^Menimbang\b`)
	mengingatPattern  = regexp.MustCompile(`^Mengingat\b`)
	penjelasanPattern = regexp.MustCompile(`^PENJELASAN\s*$`)
	romanMarkerPattern = regexp.MustCompile(`^([IVXLCDM]+)\.\s`)
	allCapsPattern    = regexp.MustCompile(`^[A-Z0-9 .,'/()-]+$`)
)

// IsLandmarkStart reports whether line begins one of the recognized legal
// landmarks. Used by the cleaner to avoid soft-wrap-joining into a heading.
func IsLandmarkStart(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	return babPattern.MatchString(t) ||
		pasalPattern.MatchString(t) ||
		menimbangPattern.MatchString(t) ||
		mengingatPattern.MatchString(t) ||
		penjelasanPattern.MatchString(t) ||
		romanMarkerPattern.MatchString(t)
}

// Promote walks the cleaned document line by line and returns the Markdown
// with landmarks rewritten to canonical headings, plus the tally of what it
// found.
func Promote(text string) (string, model.FoundCounts) {
	lines := strings.Split(text, "\n")
	var out []string
	var found model.FoundCounts

	st := stateNormal
	seenMenimbang, seenMengingat, seenPenjelasan := false, false, false

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case pasalPattern.MatchString(trimmed):
			m := pasalPattern.FindStringSubmatch(trimmed)
			out = append(out, "## Pasal "+m[1])
			found.Pasal++
			i++

		case babPattern.MatchString(trimmed):
			m := babPattern.FindStringSubmatch(trimmed)
			heading := "## BAB " + m[1]
			// Look ahead for an ALL-CAPS title on the next non-empty line.
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			if j < len(lines) {
				title := strings.TrimSpace(lines[j])
				if title != "" && allCapsPattern.MatchString(title) && !IsLandmarkStart(title) {
					heading += " — " + title
					i = j
				}
			}
			out = append(out, heading)
			found.BAB++
			st = stateNormal
			i++

		case penjelasanPattern.MatchString(trimmed):
			out = append(out, "## PENJELASAN")
			seenPenjelasan = true
			st = stateExplanation
			i++

		case menimbangPattern.MatchString(trimmed):
			out = append(out, "## Menimbang")
			seenMenimbang = true
			i++

		case mengingatPattern.MatchString(trimmed):
			out = append(out, "## Mengingat")
			seenMengingat = true
			i++

		case st == stateExplanation && romanMarkerPattern.MatchString(trimmed):
			m := romanMarkerPattern.FindStringSubmatch(trimmed)
			out = append(out, "### "+m[1]+".")
			i++

		default:
			out = append(out, line)
			i++
		}
	}

	found.Menimbang = seenMenimbang
	found.Mengingat = seenMengingat
	found.Penjelasan = seenPenjelasan

	return strings.Join(out, "\n"), found
}
