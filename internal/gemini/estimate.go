package gemini

import "unicode/utf8"

// Token cost estimates. The API response carries no ground-truth usage
// field, so costs recorded into the ledger are estimates derived from audio
// duration and text length.
const (
	transcribeTokensPerSecond  = 5.0
	cleanupInputTokensPerChar  = 1.5
	cleanupOutputTokensPerChar = 2.0
)

// EstimateTranscribeTokens estimates the cost of transcribing a clip from
// its duration.
func EstimateTranscribeTokens(durationMS int64) int64 {
	seconds := float64(durationMS) / 1000.0
	return int64(seconds * transcribeTokensPerSecond)
}

// EstimateCleanupTokens estimates the cost of a cleanup call from the full
// prompt and the raw text whose length bounds the expected output.
func EstimateCleanupTokens(prompt, rawText string) int64 {
	in := int64(float64(utf8.RuneCountInString(prompt)) * cleanupInputTokensPerChar)
	out := int64(utf8.RuneCountInString(rawText)) * int64(cleanupOutputTokensPerChar)
	return in + out
}
