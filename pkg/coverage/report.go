package coverage

import (
	"errors"
	"fmt"

	"github.com/jupierce/lcov-summary/pkg/lcov"
)

// ErrBelowThreshold is returned by Report.Check when total coverage is too low.
var ErrBelowThreshold = errors.New("coverage below threshold")

// FileCoverage holds the line counts of one report section.
type FileCoverage struct {
	Path          string
	TotalLines    int
	ExecutedLines int
}

func (f FileCoverage) MissedLines() int {
	return f.TotalLines - f.ExecutedLines
}

func (f FileCoverage) Percent() float64 {
	return percent(f.ExecutedLines, f.TotalLines)
}

// Totals is the running sum over every matched row.
type Totals struct {
	TotalLines    int
	ExecutedLines int
}

func (t *Totals) Add(f FileCoverage) {
	t.TotalLines += f.TotalLines
	t.ExecutedLines += f.ExecutedLines
}

func (t Totals) MissedLines() int {
	return t.TotalLines - t.ExecutedLines
}

func (t Totals) Percent() float64 {
	return percent(t.ExecutedLines, t.TotalLines)
}

// Row is one report line. Label is the requested target in explicit-list
// mode and the report path otherwise. Rows with Found == false stand for a
// target that never appeared in the input.
type Row struct {
	Label string
	File  FileCoverage
	Found bool
}

// Report is the aggregated result of one run.
type Report struct {
	Source string
	Rows   []Row
	Totals Totals
}

// Matched reports whether at least one row was found in the input.
func (r *Report) Matched() bool {
	for _, row := range r.Rows {
		if row.Found {
			return true
		}
	}
	return false
}

// Missing returns the labels of rows that were not found.
func (r *Report) Missing() []string {
	var missing []string
	for _, row := range r.Rows {
		if !row.Found {
			missing = append(missing, row.Label)
		}
	}
	return missing
}

// Check fails when minPct is set, something matched, and total coverage is below it.
func (r *Report) Check(minPct float64) error {
	if minPct <= 0 || !r.Matched() {
		return nil
	}
	if pct := r.Totals.Percent(); pct < minPct {
		return fmt.Errorf("%w: total %.1f%% < required %.1f%%", ErrBelowThreshold, pct, minPct)
	}
	return nil
}

// Aggregate applies spec to the parsed sections.
func Aggregate(source string, sections []lcov.Section, spec FilterSpec) *Report {
	r := &Report{Source: source}

	if list, ok := spec.(*ExplicitList); ok {
		for _, target := range list.Targets {
			found := false
			for _, s := range sections {
				if !list.MatchTarget(s.Path, target) {
					continue
				}
				found = true
				r.add(target, s)
			}
			if !found {
				r.Rows = append(r.Rows, Row{Label: target, File: FileCoverage{Path: target}})
			}
		}
		return r
	}

	for _, s := range sections {
		if spec.Match(s.Path) {
			r.add(s.Path, s)
		}
	}
	return r
}

func (r *Report) add(label string, s lcov.Section) {
	f := FileCoverage{Path: s.Path, TotalLines: s.Total, ExecutedLines: s.Executed}
	r.Rows = append(r.Rows, Row{Label: label, File: f, Found: true})
	r.Totals.Add(f)
}

func percent(executed, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(executed) / float64(total) * 100
}
