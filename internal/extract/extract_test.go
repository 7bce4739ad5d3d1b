package extract

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPagesDropsTrailingFormFeed(t *testing.T) {
	got := splitPages("page one\fpage two\f")
	assert.Equal(t, []string{"page one", "page two"}, got)
}

func TestSplitPagesSinglePage(t *testing.T) {
	got := splitPages("only page, no form feed")
	assert.Equal(t, []string{"only page, no form feed"}, got)
}

func TestSplitPagesEmptyInput(t *testing.T) {
	got := splitPages("")
	assert.Equal(t, []string{""}, got)
}

func TestStderrTailTruncatesLongOutput(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	got := stderrTail(string(long))
	assert.Len(t, got, 500)
}

func TestExtractAgainstRealBinary(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not available in this environment")
	}

	_, err := Extract(context.Background(), "missing-doc", "/nonexistent/path.pdf")
	require.Error(t, err)
}
