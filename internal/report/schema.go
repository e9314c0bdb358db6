package report

import "encoding/json"

// Partial schemas for the per-page summary files written by the sitespeed
// analysisstorer plugin. Every field is optional: the tools evolve
// independently and older trees miss keys newer ones have. Only the fields
// this service reads are modeled.

type medianStat struct {
	Median *float64 `json:"median"`
}

type browsertimeSummary struct {
	Statistics struct {
		Timings struct {
			FullyLoaded *medianStat           `json:"fullyLoaded"`
			FirstPaint  *medianStat           `json:"firstPaint"`
			PaintTiming map[string]medianStat `json:"paintTiming"`
			// largestContentfulPaint carries a nested renderTime block in
			// newer browsertime versions and a flat median in older ones.
			LargestContentfulPaint *struct {
				Median     *float64    `json:"median"`
				RenderTime *medianStat `json:"renderTime"`
			} `json:"largestContentfulPaint"`
		} `json:"timings"`
	} `json:"statistics"`
}

type coachSummary struct {
	Advice coachAdvice `json:"advice"`
}

type coachAdvice struct {
	Score         *float64       `json:"score"`
	Performance   *coachCategory `json:"performance"`
	Accessibility *coachCategory `json:"accessibility"`
	BestPractice  *coachCategory `json:"bestpractice"`
	Privacy       *coachCategory `json:"privacy"`
	Info          *struct {
		Technology json.RawMessage `json:"technology"`
	} `json:"info"`
}

type coachCategory struct {
	Score      *float64             `json:"score"`
	AdviceList map[string]coachRule `json:"adviceList"`
}

type coachRule struct {
	Score       *float64 `json:"score"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

type lighthouseSummary struct {
	Categories map[string]lighthouseCategory `json:"categories"`
	Audits     map[string]lighthouseAudit    `json:"audits"`
}

type lighthouseCategory struct {
	Score *float64 `json:"score"`
}

type lighthouseAudit struct {
	Score        *float64 `json:"score"`
	NumericValue *float64 `json:"numericValue"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
}

type pagexraySummary struct {
	TransferSize *float64        `json:"transferSize"`
	ContentSize  *float64        `json:"contentSize"`
	Requests     *float64        `json:"requests"`
	ContentTypes json.RawMessage `json:"contentTypes"`
}
