// Package gemini implements the HTTP client for the generateContent API.
// It sends transcription requests with inline audio and cleanup requests
// with inline text, retries failed calls with increasing backoff, and
// provides the token cost estimates recorded into the quota ledger.
package gemini
