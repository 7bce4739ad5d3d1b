package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyphenationRepair(t *testing.T) {
	pages := []string{"Ketentuan mengenai perizin-\nan diatur lebih lanjut."}

	out, stats := Clean(pages)

	assert.Equal(t, 1, stats.HyphensFixed)
	assert.Contains(t, out, "perizinan diatur lebih lanjut.")
	assert.NotContains(t, out, "perizin-")
}

func TestSoftWrapJoinSkipsLandmarksAndListMarkers(t *testing.T) {
	pages := []string{strings.Join([]string{
		"Ketentuan umum berlaku bagi",
		"Pasal 1",
		"a. setiap warga negara",
		"b. setiap badan hukum",
	}, "\n")}

	out, _ := Clean(pages)

	// "Pasal 1" must not be swallowed into the preceding continuation even
	// though the prior line does not end at a sentence boundary.
	assert.Contains(t, out, "Pasal 1")
	assert.Contains(t, out, "a. setiap warga negara")
	assert.Contains(t, out, "b. setiap badan hukum")
}

func TestStripPageNumbersWithinTolerance(t *testing.T) {
	pages := []string{"Isi halaman pertama.\n3\nIsi lanjutan."}

	out, _ := Clean(pages)

	lines := strings.Split(out, "\n")
	for _, l := range lines {
		assert.NotEqual(t, "3", strings.TrimSpace(l))
	}
}

func TestStripPageNumbersOutsideToleranceKept(t *testing.T) {
	// Page index is 1, so a bare "500" is far outside the +/-5 tolerance
	// and must be preserved as content (e.g. a statutory figure).
	pages := []string{"Denda paling banyak Rp500.000.000.\n500\nKetentuan lainnya."}

	out, _ := Clean(pages)

	assert.Contains(t, out, "\n500\n")
}

func TestNormalizeWhitespaceCollapsesBlankRuns(t *testing.T) {
	pages := []string{"satu\n\n\n\n\ndua"}

	out, _ := Clean(pages)

	assert.NotContains(t, out, "\n\n\n\n")
}
