package transcript

import (
	"errors"
	"strings"
)

// ErrEmptyInput indicates there were no segment texts to combine.
var ErrEmptyInput = errors.New("no transcriptions to combine")

// Combine concatenates cleaned segment texts into one document with exactly
// one blank line between segments. Overlapping content is not deduplicated
// here; removing the overlap is the cleanup prompt's job.
func Combine(parts []string) (string, error) {
	if len(parts) == 0 {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(parts[0]))

	for _, part := range parts[1:] {
		if !strings.HasSuffix(b.String(), "\n\n") && b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(part))
	}

	return b.String(), nil
}
