// Package artifacts stores per-(segment, stage) checkpoint text. Presence of
// an artifact marks that stage complete for that segment, which is what lets
// an interrupted run resume without repeating billed remote calls.
package artifacts
