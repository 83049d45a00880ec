package coverage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupierce/lcov-summary/pkg/lcov"
)

func TestFileCoveragePercent(t *testing.T) {
	tests := []struct {
		name     string
		file     FileCoverage
		expected float64
	}{
		{"empty", FileCoverage{}, 0.0},
		{"none executed", FileCoverage{TotalLines: 4}, 0.0},
		{"partial", FileCoverage{TotalLines: 3, ExecutedLines: 2}, 200.0 / 3},
		{"full", FileCoverage{TotalLines: 7, ExecutedLines: 7}, 100.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct := tt.file.Percent()
			assert.InDelta(t, tt.expected, pct, 1e-9)
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
		})
	}
}

func TestAggregateEndToEnd(t *testing.T) {
	sections, err := lcov.Parse(strings.NewReader("SF:lib/a.dart\nDA:1,1\nDA:2,0\nDA:3,2\nend_of_record\n"))
	require.NoError(t, err)

	r := Aggregate("lcov.info", sections, NewExplicitList([]string{"lib/a.dart"}, MatchSuffix))

	require.Len(t, r.Rows, 1)
	row := r.Rows[0]
	assert.True(t, row.Found)
	assert.Equal(t, 3, row.File.TotalLines)
	assert.Equal(t, 1, row.File.MissedLines())
	assert.InDelta(t, 66.7, row.File.Percent(), 0.05)
	assert.Equal(t, Totals{TotalLines: 3, ExecutedLines: 2}, r.Totals)
	assert.True(t, r.Matched())
}

func TestAggregateDuplicateSections(t *testing.T) {
	sections := []lcov.Section{
		{Path: "/src/lib/a.dart", Total: 10, Executed: 5},
		{Path: "/src/lib/b.dart", Total: 8, Executed: 8},
		{Path: "/src/lib/a.dart", Total: 4, Executed: 4},
	}

	r := Aggregate("", sections, NewExplicitList([]string{"lib/a.dart"}, MatchSuffix))

	require.Len(t, r.Rows, 2)
	assert.Equal(t, 10, r.Rows[0].File.TotalLines)
	assert.Equal(t, 4, r.Rows[1].File.TotalLines)
	assert.Equal(t, Totals{TotalLines: 14, ExecutedLines: 9}, r.Totals)
	assert.InDelta(t, 64.3, r.Totals.Percent(), 0.05)
}

func TestAggregateMissingTarget(t *testing.T) {
	sections := []lcov.Section{{Path: "lib/a.dart", Total: 2, Executed: 1}}

	r := Aggregate("", sections, NewExplicitList([]string{"lib/x.dart", "lib/a.dart"}, MatchSuffix))

	require.Len(t, r.Rows, 2)
	assert.Equal(t, Row{Label: "lib/x.dart", File: FileCoverage{Path: "lib/x.dart"}}, r.Rows[0])
	assert.Zero(t, r.Rows[0].File.Percent())
	assert.True(t, r.Rows[1].Found)
	assert.Equal(t, Totals{TotalLines: 2, ExecutedLines: 1}, r.Totals)
	assert.Equal(t, []string{"lib/x.dart"}, r.Missing())
}

func TestAggregateSuffixMatchesPlainEndings(t *testing.T) {
	sections := []lcov.Section{
		{Path: "lib/login_page.dart", Total: 4, Executed: 3},
		{Path: "/p/mylib/a.dart", Total: 2, Executed: 2},
	}
	targets := []string{"page.dart", "lib/a.dart"}

	r := Aggregate("", sections, NewExplicitList(targets, MatchSuffix))
	require.Len(t, r.Rows, 2)
	assert.True(t, r.Rows[0].Found)
	assert.Equal(t, "lib/login_page.dart", r.Rows[0].File.Path)
	assert.True(t, r.Rows[1].Found)
	assert.Equal(t, "/p/mylib/a.dart", r.Rows[1].File.Path)
	assert.Empty(t, r.Missing())

	r = Aggregate("", sections, NewExplicitList(targets, MatchSegment))
	assert.Equal(t, targets, r.Missing())
	assert.False(t, r.Matched())
}

func TestAggregateNothingMatched(t *testing.T) {
	sections := []lcov.Section{{Path: "lib/a.dart", Total: 2, Executed: 1}}

	r := Aggregate("", sections, NewExplicitList([]string{"lib/x.dart"}, MatchSuffix))
	assert.False(t, r.Matched())
	assert.Zero(t, r.Totals)

	r = Aggregate("", sections, NewPrefixDirectory("test/", ".dart", ""))
	assert.False(t, r.Matched())
	assert.Empty(t, r.Rows)
}

func TestAggregatePrefixDirectory(t *testing.T) {
	sections := []lcov.Section{
		{Path: "lib/services/auth.dart", Total: 10, Executed: 2},
		{Path: "lib/services/README.md", Total: 1, Executed: 1},
		{Path: "lib/ui/page.dart", Total: 5, Executed: 5},
		{Path: "lib/main_testable.dart", Total: 3, Executed: 0},
		{Path: "lib/services/auth.dart", Total: 1, Executed: 1},
	}

	r := Aggregate("", sections, NewPrefixDirectory(`lib\services/`, ".dart", "lib/main_testable.dart"))

	var labels []string
	for _, row := range r.Rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"lib/services/auth.dart", "lib/main_testable.dart", "lib/services/auth.dart"}, labels)
	assert.Equal(t, Totals{TotalLines: 14, ExecutedLines: 3}, r.Totals)
	assert.Empty(t, r.Missing())
}

func TestAggregateIsIdempotent(t *testing.T) {
	sections := []lcov.Section{
		{Path: "lib/a.dart", Total: 2, Executed: 1},
		{Path: "lib/b.dart", Total: 3, Executed: 3},
	}
	spec := NewExplicitList([]string{"lib/b.dart", "lib/a.dart", "lib/c.dart"}, MatchSuffix)

	assert.Equal(t, Aggregate("x", sections, spec), Aggregate("x", sections, spec))
}

func TestReportCheck(t *testing.T) {
	r := &Report{
		Rows:   []Row{{Label: "a", Found: true}},
		Totals: Totals{TotalLines: 10, ExecutedLines: 6},
	}

	assert.NoError(t, r.Check(0))
	assert.NoError(t, r.Check(60))

	err := r.Check(80)
	require.ErrorIs(t, err, ErrBelowThreshold)
	assert.Contains(t, err.Error(), "60.0%")

	empty := &Report{Rows: []Row{{Label: "a"}}}
	assert.NoError(t, empty.Check(80))
}
