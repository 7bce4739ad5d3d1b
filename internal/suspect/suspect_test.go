package suspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuspect(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		suspect bool
	}{
		{"empty page", "", true},
		{"whitespace only", "   \n\t  \n", true},
		{"short garbage", "## @@ 12", true},
		{"below alpha ratio", strings.Repeat("1", 200) + "abc", true},
		{"ordinary prose", "Pasal 1\nKetentuan umum dalam undang-undang ini berlaku untuk seluruh wilayah.", false},
		{"dense legal text", strings.Repeat("Menimbang bahwa peraturan ini perlu ditetapkan. ", 5), false},
		{"short but dense legitimate page", "Pasal 5 ayat (1) dan ayat (2).", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.suspect, IsSuspect(tc.text))
		})
	}
}

func TestDetect(t *testing.T) {
	pages := []string{
		"Pasal 1\nKetentuan umum dalam undang-undang ini berlaku untuk seluruh wilayah negara.",
		"",
		"1 2 3 4 5",
		"Pasal 2\nSetiap warga negara wajib mematuhi ketentuan yang diatur dalam undang-undang ini.",
	}

	got := Detect(pages)
	assert.Equal(t, []int{2, 3}, got)
}

func TestDetectNoSuspectsReturnsEmptyNotNil(t *testing.T) {
	pages := []string{
		"Pasal 1\nKetentuan umum dalam undang-undang ini berlaku untuk seluruh wilayah negara.",
	}
	got := Detect(pages)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
