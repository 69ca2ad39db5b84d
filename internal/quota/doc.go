// Package quota tracks per-account daily and lifetime token usage in a
// write-through persistent ledger and selects the account that serves a run.
package quota
