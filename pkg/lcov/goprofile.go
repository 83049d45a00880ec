package lcov

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/tools/cover"
)

// Format identifies the on-disk report format.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatLCOV      Format = "lcov"
	FormatGoProfile Format = "goprofile"
)

// ParseFormat validates an input format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatLCOV, FormatGoProfile:
		return f, nil
	default:
		return "", fmt.Errorf("invalid input format: %s (valid: auto, lcov, goprofile)", s)
	}
}

// Load reads the report at path in the given format and returns its sections.
func Load(path string, format Format) ([]Section, error) {
	data, err := ReadReport(path)
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		format = Detect(data)
	}
	if format == FormatGoProfile {
		sections, err := ParseGoProfile(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse go profile %s: %w", path, err)
		}
		return sections, nil
	}
	return parse(bytes.NewReader(data), path)
}

// Detect guesses the format from the first non-blank line.
func Detect(data []byte) Format {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "mode:") {
			return FormatGoProfile
		}
		return FormatLCOV
	}
	return FormatLCOV
}

// ParseGoProfile converts a Go cover profile into sections. Every source
// line spanned by a block is one executable line; its hit count is the
// largest count of the blocks touching it.
func ParseGoProfile(r io.Reader) ([]Section, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(profiles))
	for _, profile := range profiles {
		lineCounts := make(map[int]int)
		for _, block := range profile.Blocks {
			for line := block.StartLine; line <= block.EndLine; line++ {
				if count, ok := lineCounts[line]; !ok || block.Count > count {
					lineCounts[line] = block.Count
				}
			}
		}

		s := Section{Path: NormalizePath(profile.FileName)}
		for _, count := range lineCounts {
			s.Total++
			if count > 0 {
				s.Executed++
			}
		}
		sections = append(sections, s)
	}
	return sections, nil
}
