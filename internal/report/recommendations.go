package report

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Ignore thresholds: a rule at or above these never produces a
// recommendation. Coach scores are 0-100; lighthouse scores are raw 0-1
// fractions compared before conversion.
const (
	coachIgnoreScore      = 100
	lighthouseIgnoreScore = 0.9
)

// Recommendation is one deduplicated cross-page issue keyed by
// (source, rule id). Score always equals the minimum observed for the key;
// severity is derived from it.
type Recommendation struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Severity    string   `json:"severity"`
	Pages       []string `json:"pages"`
}

// severityFor buckets a 0-100 score into the three tiers.
func severityFor(score float64) string {
	switch {
	case score < 50:
		return "error"
	case score < 90:
		return "warning"
	default:
		return "info"
	}
}

// Merger aggregates coach and lighthouse findings across every page of a
// scan. Merging is commutative: the result is independent of page
// processing order.
type Merger struct {
	loc    *Locator
	logger *zap.Logger
}

// NewMerger constructs a Merger.
func NewMerger(loc *Locator, logger *zap.Logger) *Merger {
	return &Merger{loc: loc, logger: logger}
}

type recKey struct {
	source string
	ruleID string
}

// Merge walks every page's advisory output and returns the deduplicated
// recommendations ordered worst-first (ascending score, then source and
// rule id for a stable tie-break).
func (m *Merger) Merge(scanID string) []Recommendation {
	found := make(map[recKey]*Recommendation)

	for _, page := range m.loc.PageDirs(scanID) {
		m.mergeCoach(page, found)
		m.mergeLighthouse(page, found)
	}

	recs := make([]Recommendation, 0, len(found))
	for _, rec := range found {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score < recs[j].Score
		}
		if recs[i].Source != recs[j].Source {
			return recs[i].Source < recs[j].Source
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

func (m *Merger) mergeCoach(page PageDir, found map[recKey]*Recommendation) {
	var summary coachSummary
	err := decodeFile(filepath.Join(page.Path, "data", coachFile), &summary)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("could not parse coach recommendations", zap.String("page", page.Name), zap.Error(err))
		}
		return
	}

	categories := []struct {
		name string
		cat  *coachCategory
	}{
		{"performance", summary.Advice.Performance},
		{"accessibility", summary.Advice.Accessibility},
		{"bestpractice", summary.Advice.BestPractice},
		{"privacy", summary.Advice.Privacy},
	}
	for _, c := range categories {
		if c.cat == nil {
			continue
		}
		for ruleID, rule := range c.cat.AdviceList {
			if rule.Score == nil || *rule.Score >= coachIgnoreScore {
				continue
			}
			record(found, recKey{"coach", ruleID}, Recommendation{
				ID:          ruleID,
				Source:      "coach",
				Category:    c.name,
				Title:       rule.Title,
				Description: rule.Description,
				Score:       *rule.Score,
			}, page.Name)
		}
	}
}

func (m *Merger) mergeLighthouse(page PageDir, found map[recKey]*Recommendation) {
	var summary lighthouseSummary
	err := decodeFile(filepath.Join(page.Path, "data", lighthouseFile), &summary)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("could not parse lighthouse recommendations", zap.String("page", page.Name), zap.Error(err))
		}
		return
	}

	for auditID, audit := range summary.Audits {
		// Null scores mean "not applicable"; the strict comparison keeps
		// a perfect 0.9 (-> 90) out of the list.
		if audit.Score == nil || *audit.Score >= lighthouseIgnoreScore {
			continue
		}
		category, ok := lighthouseCategories[auditID]
		if !ok {
			category = "other"
		}
		record(found, recKey{"lighthouse", auditID}, Recommendation{
			ID:          auditID,
			Source:      "lighthouse",
			Category:    category,
			Title:       audit.Title,
			Description: audit.Description,
			// Truncating, not rounding, matching the exposed scale.
			Score: float64(int(*audit.Score * 100)),
		}, page.Name)
	}
}

// record folds one observation into the map: first sighting creates the
// entry, later ones keep the minimum score and union the page set in
// insertion order.
func record(found map[recKey]*Recommendation, key recKey, obs Recommendation, pageName string) {
	rec, ok := found[key]
	if !ok {
		obs.Severity = severityFor(obs.Score)
		obs.Pages = []string{}
		rec = &obs
		found[key] = rec
	}
	if !containsString(rec.Pages, pageName) {
		rec.Pages = append(rec.Pages, pageName)
	}
	if obs.Score < rec.Score {
		rec.Score = obs.Score
		rec.Severity = severityFor(obs.Score)
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
