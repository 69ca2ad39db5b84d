package artifacts

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

// RunKey derives a stable key from the audio content, so re-running the same
// recording resumes its existing artifacts.
func RunKey(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing audio content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RunKeyFromFile hashes the file at path.
func RunKeyFromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for run key: %w", path, err)
	}
	defer f.Close()
	return RunKey(f)
}

// RandomRunKey returns a fresh key for sources that cannot be re-read.
// Such runs are resumable only within the same artifact directory.
func RandomRunKey() string {
	return uuid.NewString()
}
