package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jupierce/lcov-summary/pkg/coverage"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultWidth is the width of the file column in text output.
const DefaultWidth = 45

const totalLabel = "TOTAL"

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: text, csv, json)", s)
	}
}

// Options controls rendering.
type Options struct {
	Format Format
	Width  int
}

// Render writes r to w in the requested format.
func Render(w io.Writer, r *coverage.Report, opts Options) error {
	switch opts.Format {
	case FormatCSV:
		return RenderCSV(w, r)
	case FormatJSON:
		return RenderJSON(w, r)
	case FormatText, "":
		width := opts.Width
		if width <= 0 {
			width = DefaultWidth
		}
		return RenderText(w, r, width)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Header returns the text header row.
func Header(width int) string {
	return fmt.Sprintf("%-*s %-6s %-6s %-6s", width, "File", "Stmts", "Miss", "Cover")
}

// FormatRow formats a single row. Rows that were not found show N/A.
func FormatRow(width int, row coverage.Row) string {
	if !row.Found {
		return fmt.Sprintf("%-*s %-6s %-6s %6s", width, row.Label, "N/A", "N/A", "0.0%")
	}
	return formatCounts(width, row.Label, row.File.TotalLines, row.File.MissedLines(), row.File.Percent())
}

// FormatTotal formats the TOTAL row.
func FormatTotal(width int, t coverage.Totals) string {
	return formatCounts(width, totalLabel, t.TotalLines, t.MissedLines(), t.Percent())
}

func formatCounts(width int, label string, total, missed int, pct float64) string {
	return fmt.Sprintf("%-*s %-6d %-6d %5.1f%%", width, label, total, missed, pct)
}

// RenderText writes the fixed-width table.
func RenderText(w io.Writer, r *coverage.Report, width int) error {
	header := Header(width)
	separator := strings.Repeat("-", len(header))

	lines := []string{header, separator}
	for _, row := range r.Rows {
		lines = append(lines, FormatRow(width, row))
	}
	if r.Matched() {
		lines = append(lines, separator, FormatTotal(width, r.Totals))
	} else {
		lines = append(lines, noMatchMessage(r))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func noMatchMessage(r *coverage.Report) string {
	if r.Source == "" {
		return "No target files were found."
	}
	return fmt.Sprintf("No target files were found in %s.", r.Source)
}

// RenderCSV writes one record per row plus a TOTAL record when something matched.
func RenderCSV(w io.Writer, r *coverage.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "stmts", "miss", "cover", "found"}); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{row.Label, "", "", "0.0", "false"}
		if row.Found {
			rec = []string{
				row.Label,
				strconv.Itoa(row.File.TotalLines),
				strconv.Itoa(row.File.MissedLines()),
				strconv.FormatFloat(row.File.Percent(), 'f', 1, 64),
				"true",
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if r.Matched() {
		if err := cw.Write([]string{
			totalLabel,
			strconv.Itoa(r.Totals.TotalLines),
			strconv.Itoa(r.Totals.MissedLines()),
			strconv.FormatFloat(r.Totals.Percent(), 'f', 1, 64),
			"true",
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonCounts struct {
	Stmts int     `json:"stmts"`
	Miss  int     `json:"miss"`
	Cover float64 `json:"cover"`
}

type jsonRow struct {
	File  string `json:"file"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
	*jsonCounts
}

type jsonReport struct {
	Input string      `json:"input,omitempty"`
	Files []jsonRow   `json:"files"`
	Total *jsonCounts `json:"total"`
}

// RenderJSON writes the report as an indented JSON document. Total is null
// when nothing matched.
func RenderJSON(w io.Writer, r *coverage.Report) error {
	doc := jsonReport{Input: r.Source, Files: []jsonRow{}}
	for _, row := range r.Rows {
		jr := jsonRow{File: row.Label, Found: row.Found}
		if row.Found {
			jr.Path = row.File.Path
			jr.jsonCounts = &jsonCounts{
				Stmts: row.File.TotalLines,
				Miss:  row.File.MissedLines(),
				Cover: round1(row.File.Percent()),
			}
		}
		doc.Files = append(doc.Files, jr)
	}
	if r.Matched() {
		doc.Total = &jsonCounts{
			Stmts: r.Totals.TotalLines,
			Miss:  r.Totals.MissedLines(),
			Cover: round1(r.Totals.Percent()),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}
