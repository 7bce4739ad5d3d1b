package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawdocs/pipeline/internal/config"
	"github.com/lawdocs/pipeline/internal/enumerate"
	"github.com/lawdocs/pipeline/internal/model"
	"github.com/lawdocs/pipeline/internal/pipeline"
)

func testEntries(n int) []enumerate.Entry {
	entries := make([]enumerate.Entry, n)
	for i := range entries {
		entries[i] = enumerate.Entry{DocID: enumerate.DocID(string(rune('a'+i)) + ".pdf"), AbsPath: "/nonexistent.pdf"}
	}
	return entries
}

func TestNewLocalPoolDefaultsConcurrencyToNumCPU(t *testing.T) {
	lp := NewLocalPool(0)
	assert.Greater(t, lp.Concurrency, 0)

	lp2 := NewLocalPool(3)
	assert.Equal(t, 3, lp2.Concurrency)
}

func TestLocalPoolRunCompletesEveryEntryInOrder(t *testing.T) {
	entries := testEntries(6)
	// No text extractor probed, so every document fails fast with a
	// capability error instead of shelling out to pdftotext.
	p := pipeline.New(&config.Config{}, model.Capabilities{HasTextExtractor: false})
	lp := NewLocalPool(2)

	outcomes := lp.Run(context.Background(), entries, p)

	require.Len(t, outcomes, len(entries))
	for i, o := range outcomes {
		assert.Equal(t, entries[i].DocID, o.DocID)
		assert.Error(t, o.Err)
	}
}

func TestLocalPoolRunSingleEntryConcurrencyClampedToOne(t *testing.T) {
	entries := testEntries(1)
	p := pipeline.New(&config.Config{}, model.Capabilities{HasTextExtractor: false})
	lp := NewLocalPool(8)

	outcomes := lp.Run(context.Background(), entries, p)

	require.Len(t, outcomes, 1)
	assert.Equal(t, entries[0].DocID, outcomes[0].DocID)
}

func TestLocalPoolRunRespectsCancelledContext(t *testing.T) {
	entries := testEntries(4)
	p := pipeline.New(&config.Config{}, model.Capabilities{HasTextExtractor: true})
	lp := NewLocalPool(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := lp.Run(ctx, entries, p)

	require.Len(t, outcomes, len(entries))
	for i, o := range outcomes {
		assert.Equal(t, entries[i].DocID, o.DocID)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestLocalPoolRunEmptyEntries(t *testing.T) {
	p := pipeline.New(&config.Config{}, model.Capabilities{})
	lp := NewLocalPool(2)

	outcomes := lp.Run(context.Background(), nil, p)
	assert.Empty(t, outcomes)
}
