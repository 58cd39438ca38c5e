// Package votingengine implements the vote casting engine inside the
// election-operations context.
//
// The module owns the append-mostly vote ledger, the one-vote-per-position
// enforcement keyed by anonymized voter hashes, receipt verification reads,
// and vote event production/consumption through outbox-backed workers. It
// keeps business rules in application/domain layers and isolates
// infrastructure concerns behind ports and adapters.
package votingengine
