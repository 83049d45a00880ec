// Package lcov reads line-coverage reports into per-file sections.
//
// Only SF, DA and end_of_record records are understood; everything else in
// an LCOV tracefile is skipped. Go cover profiles can be loaded into the
// same section model.
package lcov
