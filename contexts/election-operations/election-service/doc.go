// Package electionservice implements the election lifecycle manager and
// registry inside the election-operations context.
//
// The module owns election configuration, the draft/active/completed/cancelled
// state machine with its audited transitions, the admin principal set, and
// lifecycle event production through an outbox-backed relay. Business rules
// stay in the application/domain layers behind ports and adapters.
package electionservice
