// Package tracker implements the market shock resistance tracker: an
// exponential moving average over a stream of price multipliers, paired with
// a derived indicator 2*mu/|1-mu^2| recorded at every step.
//
// A Tracker is a single-writer value. Callers feed multipliers in order with
// Step and read the index-aligned History and IndicatorHistory afterwards.
package tracker
