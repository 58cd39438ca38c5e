// Package tallyservice implements the tally engine inside the
// election-operations context.
//
// The module computes position and election results by scanning the vote
// ledger, resolves administrator overrides as a read-time layer, and never
// mutates the ledger it reports on.
package tallyservice
