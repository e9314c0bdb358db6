package report

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Artifact file names inside a page's data directory.
const (
	browsertimeFile = "browsertime.pageSummary.json"
	coachFile       = "coach.pageSummary.json"
	lighthouseFile  = "lighthouse.pageSummary.json"
)

// BrowsertimeMetrics holds browsertime timings in milliseconds.
type BrowsertimeMetrics struct {
	FullyLoaded            *float64 `json:"fullyLoaded,omitempty"`
	FirstContentfulPaint   *float64 `json:"firstContentfulPaint,omitempty"`
	LargestContentfulPaint *float64 `json:"largestContentfulPaint,omitempty"`
}

// CoachMetrics holds coach scores on the 0-100 scale. Technology is a
// free-form advice payload carried through untouched and excluded from
// numeric aggregation.
type CoachMetrics struct {
	Score         *float64        `json:"score,omitempty"`
	Performance   *float64        `json:"performance,omitempty"`
	Accessibility *float64        `json:"accessibility,omitempty"`
	BestPractice  *float64        `json:"bestPractice,omitempty"`
	Privacy       *float64        `json:"privacy,omitempty"`
	Technology    json.RawMessage `json:"technology,omitempty"`
}

// LighthouseMetrics holds lighthouse category scores scaled to 0-100 and
// audit timings in milliseconds. FullyLoaded is approximated by the
// Time To Interactive audit.
type LighthouseMetrics struct {
	Performance            *float64 `json:"performance,omitempty"`
	Seo                    *float64 `json:"seo,omitempty"`
	BestPractices          *float64 `json:"bestPractices,omitempty"`
	Accessibility          *float64 `json:"accessibility,omitempty"`
	FullyLoaded            *float64 `json:"fullyLoaded,omitempty"`
	FirstContentfulPaint   *float64 `json:"firstContentfulPaint,omitempty"`
	LargestContentfulPaint *float64 `json:"largestContentfulPaint,omitempty"`
}

// IsEmpty reports whether every field is null, meaning the tool produced
// no artifact for the page.
func (m BrowsertimeMetrics) IsEmpty() bool {
	return m.FullyLoaded == nil && m.FirstContentfulPaint == nil && m.LargestContentfulPaint == nil
}

// IsEmpty reports whether every field is null, meaning the tool produced
// no artifact for the page.
func (m CoachMetrics) IsEmpty() bool {
	return m.Score == nil && m.Performance == nil && m.Accessibility == nil &&
		m.BestPractice == nil && m.Privacy == nil && m.Technology == nil
}

// IsEmpty reports whether every field is null, meaning the tool produced
// no artifact for the page.
func (m LighthouseMetrics) IsEmpty() bool {
	return m.Performance == nil && m.Seo == nil && m.BestPractices == nil &&
		m.Accessibility == nil && m.FullyLoaded == nil &&
		m.FirstContentfulPaint == nil && m.LargestContentfulPaint == nil
}

// PageMetrics is the normalized measurement for one page. Every field is
// independently nullable; it is derived fresh per request and never cached.
type PageMetrics struct {
	Page        string             `json:"page"`
	Browsertime BrowsertimeMetrics `json:"browsertime"`
	Coach       CoachMetrics       `json:"coach"`
	Lighthouse  LighthouseMetrics  `json:"lighthouse"`
}

// Extractor reads one page's raw tool output and normalizes it.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractPage parses the three per-tool summary files under pageDir/data.
// A missing file leaves its group fully null; a malformed file is logged
// and likewise leaves only its own group null.
func (e *Extractor) ExtractPage(pageDir PageDir) PageMetrics {
	metrics := PageMetrics{Page: pageDir.Name}

	var bt browsertimeSummary
	switch err := decodeFile(filepath.Join(pageDir.Path, "data", browsertimeFile), &bt); {
	case err == nil:
		timings := bt.Statistics.Timings
		metrics.Browsertime.FullyLoaded = medianOf(timings.FullyLoaded)

		// Prefer the paint-timing entry, fall back to the legacy firstPaint.
		fcp := medianOf(timings.FirstPaint)
		if pt, ok := timings.PaintTiming["first-contentful-paint"]; ok {
			metrics.Browsertime.FirstContentfulPaint = coalesce(pt.Median, fcp)
		} else {
			metrics.Browsertime.FirstContentfulPaint = fcp
		}

		if lcp := timings.LargestContentfulPaint; lcp != nil {
			metrics.Browsertime.LargestContentfulPaint = coalesce(medianOf(lcp.RenderTime), lcp.Median)
		}
	case !errors.Is(err, fs.ErrNotExist):
		e.logger.Warn("could not parse browsertime summary", zap.String("page", pageDir.Path), zap.Error(err))
	}

	var coach coachSummary
	switch err := decodeFile(filepath.Join(pageDir.Path, "data", coachFile), &coach); {
	case err == nil:
		advice := coach.Advice
		metrics.Coach.Score = advice.Score
		metrics.Coach.Performance = scoreOf(advice.Performance)
		metrics.Coach.Accessibility = scoreOf(advice.Accessibility)
		metrics.Coach.BestPractice = scoreOf(advice.BestPractice)
		metrics.Coach.Privacy = scoreOf(advice.Privacy)
		if advice.Info != nil {
			metrics.Coach.Technology = advice.Info.Technology
		}
	case !errors.Is(err, fs.ErrNotExist):
		e.logger.Warn("could not parse coach summary", zap.String("page", pageDir.Path), zap.Error(err))
	}

	var lh lighthouseSummary
	switch err := decodeFile(filepath.Join(pageDir.Path, "data", lighthouseFile), &lh); {
	case err == nil:
		metrics.Lighthouse.Performance = scale100(categoryScore(lh, "performance"))
		metrics.Lighthouse.Seo = scale100(categoryScore(lh, "seo"))
		metrics.Lighthouse.BestPractices = scale100(categoryScore(lh, "best-practices"))
		metrics.Lighthouse.Accessibility = scale100(categoryScore(lh, "accessibility"))
		metrics.Lighthouse.FirstContentfulPaint = auditValue(lh, "first-contentful-paint")
		metrics.Lighthouse.LargestContentfulPaint = auditValue(lh, "largest-contentful-paint")
		// TTI stands in for fully loaded; lighthouse has no direct equivalent.
		metrics.Lighthouse.FullyLoaded = auditValue(lh, "interactive")
	case !errors.Is(err, fs.ErrNotExist):
		e.logger.Warn("could not parse lighthouse summary", zap.String("page", pageDir.Path), zap.Error(err))
	}

	return metrics
}

// decodeFile unmarshals a JSON artifact. Returns fs.ErrNotExist unwrapped
// so callers can distinguish absence (expected) from corruption (logged).
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// coalesce returns the first non-nil candidate, expressing a field's
// fallback chain as an ordered list.
func coalesce(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func medianOf(s *medianStat) *float64 {
	if s == nil {
		return nil
	}
	return s.Median
}

func scoreOf(c *coachCategory) *float64 {
	if c == nil {
		return nil
	}
	return c.Score
}

func categoryScore(lh lighthouseSummary, name string) *float64 {
	return lh.Categories[name].Score
}

func auditValue(lh lighthouseSummary, id string) *float64 {
	return lh.Audits[id].NumericValue
}

// scale100 converts a 0-1 fraction to 0-100, preserving null.
func scale100(v *float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * 100
	return &scaled
}
