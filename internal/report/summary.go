package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SummaryMeta carries the job metadata known to the caller. All fields may
// be empty after a restart, when the registry no longer knows the scan.
type SummaryMeta struct {
	URL         string
	Timestamp   string
	CompletedAt string
}

// Summary is the whole-job report view: links to every discovered artifact
// plus headline metrics from the first matching summary file of each tool.
type Summary struct {
	ScanID      string         `json:"scanId"`
	URL         string         `json:"url"`
	Timestamp   string         `json:"timestamp"`
	CompletedAt string         `json:"completed_at"`
	Reports     map[string]any `json:"reports"`
	Metrics     map[string]any `json:"metrics"`
}

// Summarizer builds whole-job summaries from the report tree.
type Summarizer struct {
	loc    *Locator
	logger *zap.Logger
}

// NewSummarizer constructs a Summarizer.
func NewSummarizer(loc *Locator, logger *zap.Logger) *Summarizer {
	return &Summarizer{loc: loc, logger: logger}
}

// Build assembles the summary. ok is false when neither artifacts nor
// metrics were found, which callers surface as not-found.
func (s *Summarizer) Build(scanID string, meta SummaryMeta) (*Summary, bool) {
	summary := &Summary{
		ScanID:      scanID,
		URL:         meta.URL,
		Timestamp:   meta.Timestamp,
		CompletedAt: meta.CompletedAt,
		Reports:     map[string]any{},
		Metrics:     map[string]any{},
	}

	jobDir := s.loc.JobDir(scanID)
	link := func(rel string) string {
		return fmt.Sprintf("/reports/%s/%s", scanID, filepath.ToSlash(rel))
	}

	if _, err := os.Stat(filepath.Join(jobDir, "index.html")); err == nil {
		summary.Reports["html"] = link("index.html")
	}
	if _, err := os.Stat(filepath.Join(jobDir, "detailed.html")); err == nil {
		summary.Reports["detailed_html"] = link("detailed.html")
	}

	if rel, ok := s.loc.FindArtifact(scanID, browsertimeFile); ok {
		var bt struct {
			Statistics json.RawMessage `json:"statistics"`
			Info       json.RawMessage `json:"info"`
		}
		if s.decode(filepath.Join(jobDir, rel), &bt) {
			summary.Metrics["browsertime"] = map[string]any{
				"statistics": rawOrEmpty(bt.Statistics),
				"info":       rawOrEmpty(bt.Info),
			}
			summary.Reports["browsertime_json"] = link(rel)
		}
	}

	if rel, ok := s.loc.FindArtifact(scanID, coachFile); ok {
		var coach struct {
			Advice json.RawMessage `json:"advice"`
		}
		if s.decode(filepath.Join(jobDir, rel), &coach) {
			var advice struct {
				Score *float64 `json:"score"`
			}
			_ = json.Unmarshal(coach.Advice, &advice)
			summary.Metrics["coach"] = map[string]any{
				"advice": rawOrEmpty(coach.Advice),
				"score":  advice.Score,
			}
			summary.Reports["coach_json"] = link(rel)
		}
	}

	if rel, ok := s.loc.FindArtifact(scanID, "pagexray.pageSummary.json"); ok {
		var px pagexraySummary
		if s.decode(filepath.Join(jobDir, rel), &px) {
			summary.Metrics["pagexray"] = map[string]any{
				"transferSize": px.TransferSize,
				"contentSize":  px.ContentSize,
				"requests":     px.Requests,
				"contentTypes": rawOrEmpty(px.ContentTypes),
			}
			summary.Reports["pagexray_json"] = link(rel)
		}
	}

	if rel, ok := s.loc.FindArtifact(scanID, lighthouseFile); ok {
		var lh lighthouseSummary
		if s.decode(filepath.Join(jobDir, rel), &lh) {
			lhMetrics := map[string]any{}
			if len(lh.Categories) > 0 {
				// The headline view zero-fills missing categories; the
				// per-page extractor keeps them null instead.
				for name, key := range map[string]string{
					"performance":    "performance",
					"accessibility":  "accessibility",
					"best-practices": "bestPractices",
					"seo":            "seo",
					"pwa":            "pwa",
				} {
					lhMetrics[key] = scoreOrZero(lh.Categories[name].Score) * 100
				}
			}
			if len(lh.Audits) > 0 {
				lhMetrics["webVitals"] = map[string]any{
					"LCP": auditValue(lh, "largest-contentful-paint"),
					"TBT": auditValue(lh, "total-blocking-time"),
					"CLS": auditValue(lh, "cumulative-layout-shift"),
					"FCP": auditValue(lh, "first-contentful-paint"),
					"SI":  auditValue(lh, "speed-index"),
				}
			}
			if len(lhMetrics) > 0 {
				summary.Metrics["lighthouse"] = lhMetrics
			}
			summary.Reports["lighthouse_json"] = link(rel)
		}
	}

	if rel, ok := s.loc.FindArtifact(scanID, "lighthouse.html"); ok {
		summary.Reports["lighthouse_html"] = link(rel)
	}
	if rel, ok := s.loc.FindArtifact(scanID, "browsertime.har"); ok {
		summary.Reports["har"] = link(rel)
	}
	if rel, ok := s.loc.FindVideo(scanID); ok {
		summary.Reports["video"] = link(rel)
	}
	if shots := s.loc.FindScreenshots(scanID, 5); len(shots) > 0 {
		links := make([]string, 0, len(shots))
		for _, rel := range shots {
			links = append(links, link(rel))
		}
		summary.Reports["screenshots"] = links
	}

	if len(summary.Reports) == 0 && len(summary.Metrics) == 0 {
		return nil, false
	}
	return summary, true
}

func (s *Summarizer) decode(path string, v any) bool {
	err := decodeFile(path, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("could not parse report artifact", zap.String("path", path), zap.Error(err))
	}
	return false
}

func scoreOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// rawOrEmpty keeps pass-through JSON chunks valid when the source key was
// absent.
func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
