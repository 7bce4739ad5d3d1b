package suppress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressRemovesRepeatedHeaderFooter(t *testing.T) {
	pages := []string{
		"REPUBLIK INDONESIA\nPasal 1\nKetentuan umum berlaku.\nwww.peraturan.go.id",
		"REPUBLIK INDONESIA\nPasal 2\nKetentuan lanjutan berlaku.\nwww.peraturan.go.id",
		"REPUBLIK INDONESIA\nPasal 3\nKetentuan penutup berlaku.\nwww.peraturan.go.id",
	}

	cleaned, stats := Suppress(pages, nil)

	for i, p := range cleaned {
		assert.NotContains(t, p, "REPUBLIK INDONESIA", "page %d", i)
		assert.NotContains(t, p, "www.peraturan.go.id", "page %d", i)
	}
	assert.Equal(t, 3, stats.RemovedHeader)
	assert.Equal(t, 3, stats.RemovedFooter)
}

func TestSuppressNeverRemovesUniqueLine(t *testing.T) {
	pages := []string{
		"REPUBLIK INDONESIA\nisi unik halaman satu",
		"REPUBLIK INDONESIA\nisi unik halaman dua",
		"REPUBLIK INDONESIA\nisi unik halaman tiga",
	}

	cleaned, _ := Suppress(pages, nil)

	assert.Contains(t, cleaned[0], "isi unik halaman satu")
	assert.Contains(t, cleaned[1], "isi unik halaman dua")
	assert.Contains(t, cleaned[2], "isi unik halaman tiga")
}

func TestSuppressRespectsWhitelist(t *testing.T) {
	pages := []string{
		"PENTING: Pasal 1\nbadan satu",
		"PENTING: Pasal 1\nbadan dua",
		"PENTING: Pasal 1\nbadan tiga",
	}
	whitelist := CompileWhitelist([]string{`^PENTING:.*`})

	cleaned, stats := Suppress(pages, whitelist)

	for _, p := range cleaned {
		assert.True(t, strings.HasPrefix(p, "PENTING:"))
	}
	assert.Equal(t, 0, stats.RemovedHeader)
}

func TestCompileWhitelistDropsIllFormedSilently(t *testing.T) {
	res := CompileWhitelist([]string{"", "   ", "[unterminated"})
	assert.Empty(t, res)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a   b\tc  "))
}
