// Package strategy orders the configured providers for one lookup.
//
// The weighted random strategy picks a primary provider with probability
// proportional to its weight. The remaining providers follow by descending
// weight, keeping their configured order on ties. Every provider appears in
// the ordering exactly once.
package strategy
