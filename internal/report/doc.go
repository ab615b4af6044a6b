// Package report derives the dashboard, chart and table views from a flat
// list of transactions.
//
// Every function is a pure transform of its input: nothing is cached or
// persisted, and nothing returns an error. Malformed dates fall back to
// today, empty input yields empty or zero values, and ratios with a zero
// base are 0.
package report
