// Package report renders aggregated coverage as a fixed-width table, CSV or JSON.
package report
