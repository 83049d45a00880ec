package coverage

import (
	"fmt"
	"strings"

	"github.com/jupierce/lcov-summary/pkg/lcov"
)

// MatchMode selects how explicit targets are compared with report paths.
type MatchMode string

const (
	MatchSuffix  MatchMode = "suffix"
	MatchSegment MatchMode = "segment"
	MatchExact   MatchMode = "exact"
)

// ParseMatchMode validates a match mode name.
func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(strings.ToLower(s)); m {
	case MatchSuffix, MatchSegment, MatchExact:
		return m, nil
	case "":
		return MatchSuffix, nil
	default:
		return "", fmt.Errorf("invalid match mode: %s (valid: suffix, segment, exact)", s)
	}
}

// FilterSpec selects which sections appear in a report. The two
// implementations are ExplicitList and PrefixDirectoryPlusExtra.
type FilterSpec interface {
	// Match reports whether a normalized report path is selected.
	Match(path string) bool
	String() string
}

// ExplicitList reports once per requested target.
type ExplicitList struct {
	Targets []string
	Mode    MatchMode
}

// NewExplicitList normalizes targets and returns the filter.
func NewExplicitList(targets []string, mode MatchMode) *ExplicitList {
	normalized := make([]string, 0, len(targets))
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			normalized = append(normalized, lcov.NormalizePath(t))
		}
	}
	if mode == "" {
		mode = MatchSuffix
	}
	return &ExplicitList{Targets: normalized, Mode: mode}
}

func (f *ExplicitList) Match(path string) bool {
	for _, target := range f.Targets {
		if f.MatchTarget(path, target) {
			return true
		}
	}
	return false
}

// MatchTarget reports whether path is the given target under the list's mode.
func (f *ExplicitList) MatchTarget(path, target string) bool {
	path = lcov.NormalizePath(path)
	target = lcov.NormalizePath(target)
	if path == target {
		return true
	}
	if target == "" || !strings.HasSuffix(path, target) {
		return false
	}

	switch f.Mode {
	case MatchSuffix:
		return true
	case MatchSegment:
		// "lib/a.dart" matches "/p/lib/a.dart" but not "/p/mylib/a.dart".
		return strings.HasPrefix(target, "/") || path[len(path)-len(target)-1] == '/'
	default:
		return false
	}
}

func (f *ExplicitList) String() string {
	return fmt.Sprintf("%d target(s), %s match", len(f.Targets), f.Mode)
}

// PrefixDirectoryPlusExtra selects every file under a directory with a
// given extension, plus one extra file matched exactly.
type PrefixDirectoryPlusExtra struct {
	Prefix    string
	Extension string
	Extra     string
}

// NewPrefixDirectory normalizes the prefix and extra file and returns the filter.
func NewPrefixDirectory(prefix, extension, extra string) *PrefixDirectoryPlusExtra {
	return &PrefixDirectoryPlusExtra{
		Prefix:    lcov.NormalizePath(strings.TrimSpace(prefix)),
		Extension: strings.TrimSpace(extension),
		Extra:     lcov.NormalizePath(strings.TrimSpace(extra)),
	}
}

func (f *PrefixDirectoryPlusExtra) Match(path string) bool {
	path = lcov.NormalizePath(path)
	if f.Extra != "" && path == f.Extra {
		return true
	}
	return f.Prefix != "" && strings.HasPrefix(path, f.Prefix) && strings.HasSuffix(path, f.Extension)
}

func (f *PrefixDirectoryPlusExtra) String() string {
	s := fmt.Sprintf("prefix %s*%s", f.Prefix, f.Extension)
	if f.Extra != "" {
		s += " + " + f.Extra
	}
	return s
}
