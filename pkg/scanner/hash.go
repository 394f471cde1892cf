package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// Fingerprint computes a fast sampled content hash: SHA-256 over the
// decimal file size, the first sampleSize bytes, and — only when the file
// is larger than two samples — the last sampleSize bytes. The first 16 hex
// characters are kept. Reading at most two samples keeps hashing cheap
// over SMB while the size prefix separates same-prefix files of different
// lengths.
func Fingerprint(r io.ReadSeeker, size, sampleSize int64) (string, error) {
	if sampleSize <= 0 {
		return "", fmt.Errorf("invalid sample size %d", sampleSize)
	}

	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(size, 10)))

	if _, err := io.CopyN(h, r, sampleSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read head sample: %w", err)
	}

	if size > sampleSize*2 {
		if _, err := r.Seek(-sampleSize, io.SeekEnd); err != nil {
			return "", fmt.Errorf("failed to seek to tail sample: %w", err)
		}
		if _, err := io.CopyN(h, r, sampleSize); err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read tail sample: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
