// Package pipeline drives segments through the two remote stages in strict
// index order, checkpointing each completed stage so interrupted runs resume
// without re-billing, and reporting progress through a structured event sink.
package pipeline
