package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestAggregateEmptyInput(t *testing.T) {
	t.Parallel()

	agg := Aggregate(nil)
	assert.Equal(t, 0, agg.PagesCount)
	assert.Nil(t, agg.Coach.Score)
	assert.Nil(t, agg.Lighthouse.Performance)
}

func TestAggregateSkipsNulls(t *testing.T) {
	t.Parallel()

	pages := []PageMetrics{
		{Coach: CoachMetrics{Score: fp(100)}},
		{Coach: CoachMetrics{Score: nil}},
		{Coach: CoachMetrics{Score: fp(50)}},
	}
	agg := Aggregate(pages)
	assert.Equal(t, 3, agg.PagesCount)
	require.NotNil(t, agg.Coach.Score)
	// Mean of the two non-null values, not of all three.
	assert.Equal(t, 75.0, *agg.Coach.Score)
}

func TestAggregateAllNullStaysNull(t *testing.T) {
	t.Parallel()

	agg := Aggregate([]PageMetrics{{}, {}})
	assert.Equal(t, 2, agg.PagesCount)
	assert.Nil(t, agg.Browsertime.FullyLoaded)
	assert.Nil(t, agg.Coach.Privacy)
	assert.Nil(t, agg.Lighthouse.LargestContentfulPaint)
}

func TestAggregateRoundsTwoDecimals(t *testing.T) {
	t.Parallel()

	pages := []PageMetrics{
		{Browsertime: BrowsertimeMetrics{FullyLoaded: fp(1000)}},
		{Browsertime: BrowsertimeMetrics{FullyLoaded: fp(1001)}},
		{Browsertime: BrowsertimeMetrics{FullyLoaded: fp(1001)}},
	}
	agg := Aggregate(pages)
	require.NotNil(t, agg.Browsertime.FullyLoaded)
	assert.Equal(t, 1000.67, *agg.Browsertime.FullyLoaded)
}

func TestAggregateTechnologyExcluded(t *testing.T) {
	t.Parallel()

	pages := []PageMetrics{
		{Coach: CoachMetrics{Technology: []byte(`"wordpress"`)}},
	}
	agg := Aggregate(pages)
	assert.Nil(t, agg.Coach.Technology)
}
