// Package coverage filters parsed report sections and aggregates per-file
// and total line coverage.
package coverage
