// Package campaign holds the campaign aggregate: the pure decision and fold
// logic that validates commands against replayed state and emits lifecycle
// events. Nothing in this package touches storage; state is reconstructed by
// folding the ordered event stream for a campaign id.
package campaign
