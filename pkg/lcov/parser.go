package lcov

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	sourceFilePrefix = "SF:"
	lineDataPrefix   = "DA:"
	endOfRecord      = "end_of_record"
)

var (
	// ErrReportNotFound is returned when the configured report path does not exist.
	ErrReportNotFound = errors.New("report source not found")

	// ErrMalformedRecord is wrapped by every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed record")
)

// MalformedRecordError describes a DA record that could not be parsed.
type MalformedRecordError struct {
	Source string // report path, empty when parsing a reader
	Line   int    // 1-based line in the report
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	src := e.Source
	if src == "" {
		src = "<input>"
	}
	return fmt.Sprintf("%s:%d: malformed record %q: %s", src, e.Line, e.Text, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Section is one finalized SF..end_of_record block.
type Section struct {
	Path     string
	Total    int
	Executed int
}

// State is the parser state between records.
type State int

const (
	NoActiveFile State = iota
	InFile
)

func (s State) String() string {
	if s == InFile {
		return "InFile"
	}
	return "NoActiveFile"
}

// Parser is the section state machine. Feed it lines in order and call
// Finish once at end of input.
type Parser struct {
	source   string
	line     int
	state    State
	current  Section
	sections []Section
}

// NewParser returns a parser in the NoActiveFile state.
func NewParser() *Parser {
	return &Parser{}
}

// State returns the current state.
func (p *Parser) State() State {
	return p.state
}

// Current returns the open section. Only meaningful while InFile.
func (p *Parser) Current() Section {
	return p.current
}

// Feed consumes one line of the report.
func (p *Parser) Feed(raw string) error {
	p.line++
	line := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(line, sourceFilePrefix):
		if p.state == InFile {
			p.finalize()
		}
		p.state = InFile
		p.current = Section{Path: NormalizePath(strings.TrimSpace(line[len(sourceFilePrefix):]))}

	case strings.HasPrefix(line, lineDataPrefix):
		// No file context to attribute it to.
		if p.state != InFile {
			return nil
		}
		hits, err := p.parseLineData(line)
		if err != nil {
			return err
		}
		p.current.Total++
		if hits > 0 {
			p.current.Executed++
		}

	case line == endOfRecord:
		if p.state == InFile {
			p.finalize()
		}
	}
	return nil
}

// Finish closes a section left open at end of input and returns every
// finalized section in input order.
func (p *Parser) Finish() []Section {
	if p.state == InFile {
		p.finalize()
	}
	return p.sections
}

func (p *Parser) finalize() {
	p.sections = append(p.sections, p.current)
	p.current = Section{}
	p.state = NoActiveFile
}

// parseLineData parses "DA:<line>,<hits>[,<checksum>]" and returns the hit count.
func (p *Parser) parseLineData(line string) (int64, error) {
	fields := strings.Split(line[len(lineDataPrefix):], ",")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, p.malformed(line, "expected <line_number>,<hit_count>")
	}

	lineNum, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || lineNum <= 0 {
		return 0, p.malformed(line, "line number must be a positive integer")
	}

	hits, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil || hits < 0 {
		return 0, p.malformed(line, "hit count must be a non-negative integer")
	}
	return hits, nil
}

func (p *Parser) malformed(text, reason string) error {
	return &MalformedRecordError{
		Source: p.source,
		Line:   p.line,
		Text:   text,
		Reason: reason,
	}
}

// Parse reads the whole report into memory and runs the state machine over it.
func Parse(r io.Reader) ([]Section, error) {
	return parse(r, "")
}

// ParseFile parses the LCOV report at path.
func ParseFile(path string) ([]Section, error) {
	data, err := ReadReport(path)
	if err != nil {
		return nil, err
	}
	return parse(bytes.NewReader(data), path)
}

// ReadReport reads the report at path, mapping a missing file to ErrReportNotFound.
func ReadReport(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return data, nil
}

func parse(r io.Reader, source string) ([]Section, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	p := NewParser()
	p.source = source

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		if err := p.Feed(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return p.Finish(), nil
}

// NormalizePath converts Windows separators to forward slashes.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
