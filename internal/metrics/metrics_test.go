package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lawdocs/pipeline/internal/model"
)

func TestCharacterCoverage(t *testing.T) {
	pre := []string{"hello world", "goodbye world"}
	md := "hello world goodbye world"
	assert.InDelta(t, 1.0, CharacterCoverage(md, pre), 0.001)

	assert.Equal(t, 0.0, CharacterCoverage("", nil))
}

func TestLeakRate(t *testing.T) {
	md := "## Pasal 1\nisi pasal\n12\nHalaman 3"
	rate := LeakRate(md)
	assert.InDelta(t, 0.5, rate, 0.001)
}

func TestLeakRateNoLeaks(t *testing.T) {
	assert.Equal(t, 0.0, LeakRate("## Pasal 1\nisi pasal satu"))
}

func TestSplitViolations(t *testing.T) {
	md := "isi pertama tanpa titik\nlanjutan huruf kecil"
	assert.Equal(t, 1, SplitViolations(md))
}

func TestSplitViolationsNoneWhenSentenceEnds(t *testing.T) {
	md := "isi pertama selesai.\nKalimat baru dimulai."
	assert.Equal(t, 0, SplitViolations(md))
}

func TestCoveragePagesAllDefinitive(t *testing.T) {
	assert.Equal(t, 1.0, CoveragePages(5, nil, nil))
}

func TestCoveragePagesSuspectWithoutOCR(t *testing.T) {
	got := CoveragePages(4, []int{2}, nil)
	assert.InDelta(t, 0.75, got, 0.001)
}

func TestCoveragePagesSuspectResolvedByOCR(t *testing.T) {
	got := CoveragePages(4, []int{2}, []int{2})
	assert.Equal(t, 1.0, got)
}

func TestP95NearestRank(t *testing.T) {
	samples := []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.Equal(t, 100.0, P95(samples))
}

func TestP95Empty(t *testing.T) {
	assert.Equal(t, 0.0, P95(nil))
}

func TestFingerprintStableAcrossVolatileFields(t *testing.T) {
	base := model.Metadata{
		DocID:  "uu-1-2020",
		Engine: "lawdocs",
		Found:  model.FoundCounts{BAB: 2, Pasal: 10},
	}

	a := base
	a.Timestamps = model.Timestamps{StartedMS: 1, FinishedMS: 2}
	a.Metrics.DurationMS = 111
	a.Stats.RuntimeMS = 222
	a.TimingMSPerPage = []int64{5, 6, 7}
	a.P95LatencyMSPerPage = 7

	b := base
	b.Timestamps = model.Timestamps{StartedMS: 999, FinishedMS: 1000}
	b.Metrics.DurationMS = 333
	b.Stats.RuntimeMS = 444
	b.TimingMSPerPage = []int64{1, 2}
	b.P95LatencyMSPerPage = 2

	fpA, err := Fingerprint(a)
	assert.NoError(t, err)
	fpB, err := Fingerprint(b)
	assert.NoError(t, err)
	assert.Equal(t, fpA, fpB)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := model.Metadata{DocID: "uu-1-2020", Found: model.FoundCounts{BAB: 2}}
	b := model.Metadata{DocID: "uu-1-2020", Found: model.FoundCounts{BAB: 3}}

	fpA, _ := Fingerprint(a)
	fpB, _ := Fingerprint(b)
	assert.NotEqual(t, fpA, fpB)
}
