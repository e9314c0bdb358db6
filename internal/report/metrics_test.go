package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const browsertimeFull = `{
  "statistics": {
    "timings": {
      "fullyLoaded": {"median": 2500},
      "firstPaint": {"median": 900},
      "paintTiming": {"first-contentful-paint": {"median": 800}},
      "largestContentfulPaint": {"median": 1300, "renderTime": {"median": 1200}}
    }
  }
}`

const coachFull = `{
  "advice": {
    "score": 88,
    "performance": {"score": 90},
    "accessibility": {"score": 85},
    "bestpractice": {"score": 92},
    "privacy": {"score": 70},
    "info": {"technology": {"cms": "wordpress"}}
  }
}`

const lighthouseFull = `{
  "categories": {
    "performance": {"score": 0.55},
    "seo": {"score": 1},
    "best-practices": {"score": 0.93},
    "accessibility": {"score": 0.87}
  },
  "audits": {
    "first-contentful-paint": {"score": 0.7, "numericValue": 1800.5},
    "largest-contentful-paint": {"score": 0.4, "numericValue": 4100},
    "interactive": {"score": 0.5, "numericValue": 5200}
  }
}`

func extractOne(t *testing.T, files map[string]string) PageMetrics {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		writePageFile(t, root, "scan-1", "example.com", name, content)
	}
	dirs := NewLocator(root).PageDirs("scan-1")
	require.Len(t, dirs, 1)
	return NewExtractor(zap.NewNop()).ExtractPage(dirs[0])
}

func TestExtractPageAllTools(t *testing.T) {
	t.Parallel()

	m := extractOne(t, map[string]string{
		browsertimeFile: browsertimeFull,
		coachFile:       coachFull,
		lighthouseFile:  lighthouseFull,
	})

	assert.Equal(t, "example.com", m.Page)
	require.NotNil(t, m.Browsertime.FullyLoaded)
	assert.Equal(t, 2500.0, *m.Browsertime.FullyLoaded)
	// paint-timing entry wins over firstPaint.
	assert.Equal(t, 800.0, *m.Browsertime.FirstContentfulPaint)
	// nested renderTime median wins over the flat median.
	assert.Equal(t, 1200.0, *m.Browsertime.LargestContentfulPaint)

	assert.Equal(t, 88.0, *m.Coach.Score)
	assert.Equal(t, 90.0, *m.Coach.Performance)
	assert.Equal(t, 70.0, *m.Coach.Privacy)
	assert.JSONEq(t, `{"cms": "wordpress"}`, string(m.Coach.Technology))

	assert.InDelta(t, 55.0, *m.Lighthouse.Performance, 1e-9)
	assert.Equal(t, 100.0, *m.Lighthouse.Seo)
	assert.InDelta(t, 93.0, *m.Lighthouse.BestPractices, 1e-9)
	assert.Equal(t, 1800.5, *m.Lighthouse.FirstContentfulPaint)
	assert.Equal(t, 4100.0, *m.Lighthouse.LargestContentfulPaint)
	// fullyLoaded approximated by the interactive audit.
	assert.Equal(t, 5200.0, *m.Lighthouse.FullyLoaded)
}

func TestExtractPageFallbacks(t *testing.T) {
	t.Parallel()

	m := extractOne(t, map[string]string{
		browsertimeFile: `{
  "statistics": {
    "timings": {
      "firstPaint": {"median": 950},
      "largestContentfulPaint": {"median": 1400}
    }
  }
}`,
	})

	// No paint-timing entry: fall back to firstPaint.
	require.NotNil(t, m.Browsertime.FirstContentfulPaint)
	assert.Equal(t, 950.0, *m.Browsertime.FirstContentfulPaint)
	// No renderTime block: fall back to the flat median.
	require.NotNil(t, m.Browsertime.LargestContentfulPaint)
	assert.Equal(t, 1400.0, *m.Browsertime.LargestContentfulPaint)
	assert.Nil(t, m.Browsertime.FullyLoaded)
}

func TestExtractPageLighthouseOnly(t *testing.T) {
	t.Parallel()

	m := extractOne(t, map[string]string{lighthouseFile: lighthouseFull})

	assert.Nil(t, m.Browsertime.FullyLoaded)
	assert.Nil(t, m.Browsertime.FirstContentfulPaint)
	assert.Nil(t, m.Browsertime.LargestContentfulPaint)
	assert.Nil(t, m.Coach.Score)
	assert.Nil(t, m.Coach.Performance)
	assert.Nil(t, m.Coach.Technology)
	require.NotNil(t, m.Lighthouse.Performance)
	assert.InDelta(t, 55.0, *m.Lighthouse.Performance, 1e-9)
}

func TestExtractPageMissingCategoryIsNullNotZero(t *testing.T) {
	t.Parallel()

	m := extractOne(t, map[string]string{
		lighthouseFile: `{"categories": {"performance": {"score": 0.5}}, "audits": {}}`,
	})

	require.NotNil(t, m.Lighthouse.Performance)
	assert.Nil(t, m.Lighthouse.Seo)
	assert.Nil(t, m.Lighthouse.Accessibility)
	assert.Nil(t, m.Lighthouse.FirstContentfulPaint)
}

func TestExtractPageMalformedFileDegrades(t *testing.T) {
	t.Parallel()

	m := extractOne(t, map[string]string{
		coachFile:      `{"advice": not json`,
		lighthouseFile: lighthouseFull,
	})

	// The broken coach file leaves only its own group null.
	assert.Nil(t, m.Coach.Score)
	require.NotNil(t, m.Lighthouse.Performance)
}

func TestCoalesce(t *testing.T) {
	t.Parallel()

	a, b := 1.0, 2.0
	assert.Equal(t, &a, coalesce(&a, &b))
	assert.Equal(t, &b, coalesce(nil, &b))
	assert.Nil(t, coalesce(nil, nil))
}
