package report

import "math"

// AggregateMetrics holds cross-page averages. A field is null when every
// page left it null; pagesCount counts inputs regardless.
type AggregateMetrics struct {
	PagesCount  int                `json:"pagesCount"`
	Browsertime BrowsertimeMetrics `json:"browsertime"`
	Coach       CoachMetrics       `json:"coach"`
	Lighthouse  LighthouseMetrics  `json:"lighthouse"`
}

// Aggregate averages the numeric fields of the given pages, skipping null
// observations. Empty input yields the zero value, never an error.
func Aggregate(pages []PageMetrics) AggregateMetrics {
	if len(pages) == 0 {
		return AggregateMetrics{}
	}
	return AggregateMetrics{
		PagesCount: len(pages),
		Browsertime: BrowsertimeMetrics{
			FullyLoaded:            mean(pages, func(p PageMetrics) *float64 { return p.Browsertime.FullyLoaded }),
			FirstContentfulPaint:   mean(pages, func(p PageMetrics) *float64 { return p.Browsertime.FirstContentfulPaint }),
			LargestContentfulPaint: mean(pages, func(p PageMetrics) *float64 { return p.Browsertime.LargestContentfulPaint }),
		},
		Coach: CoachMetrics{
			Score:         mean(pages, func(p PageMetrics) *float64 { return p.Coach.Score }),
			Performance:   mean(pages, func(p PageMetrics) *float64 { return p.Coach.Performance }),
			Accessibility: mean(pages, func(p PageMetrics) *float64 { return p.Coach.Accessibility }),
			BestPractice:  mean(pages, func(p PageMetrics) *float64 { return p.Coach.BestPractice }),
			Privacy:       mean(pages, func(p PageMetrics) *float64 { return p.Coach.Privacy }),
		},
		Lighthouse: LighthouseMetrics{
			Performance:            mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.Performance }),
			Seo:                    mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.Seo }),
			BestPractices:          mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.BestPractices }),
			Accessibility:          mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.Accessibility }),
			FullyLoaded:            mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.FullyLoaded }),
			FirstContentfulPaint:   mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.FirstContentfulPaint }),
			LargestContentfulPaint: mean(pages, func(p PageMetrics) *float64 { return p.Lighthouse.LargestContentfulPaint }),
		},
	}
}

// mean averages the non-null observations of one field, rounded to two
// decimal places. All-null yields nil, never zero.
func mean(pages []PageMetrics, pick func(PageMetrics) *float64) *float64 {
	var sum float64
	count := 0
	for _, p := range pages {
		if v := pick(p); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(sum/float64(count)*100) / 100
	return &avg
}
