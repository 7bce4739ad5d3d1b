// Package groundtruth parses the ground-truth fixture grammar named in the
// external interfaces: lines of the form
// `doc_id: { bab: <int>, pasal: <int> }`, with `#` comments and blank lines
// ignored. This lets --strict apply landmark-count KPIs without invoking
// the external acceptance harness.
package groundtruth

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Expectation is one document's expected landmark counts.
type Expectation struct {
	BAB   int
	Pasal int
}

var lineRe = regexp.MustCompile(`^([^:]+):\s*\{\s*bab:\s*(\d+)\s*,\s*pasal:\s*(\d+)\s*\}\s*$`)

// Load parses a fixture file into a map keyed by doc_id.
func Load(path string) (map[string]Expectation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := map[string]Expectation{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("ground truth fixture %s:%d: malformed line %q", path, lineNo, line)
		}
		bab, _ := strconv.Atoi(m[2])
		pasal, _ := strconv.Atoi(m[3])
		result[strings.TrimSpace(m[1])] = Expectation{BAB: bab, Pasal: pasal}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
