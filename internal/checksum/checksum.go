// Package checksum computes content fingerprints for catalog documents.
package checksum

import (
	"crypto/md5" //nolint:gosec // identity fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds how much of a document is held in memory at once.
const chunkSize = 64 * 1024

// Reader streams r and returns the hex-encoded MD5 digest of its bytes.
func Reader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the digest of the file at path. Directories are rejected.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("checksum: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("checksum: %s is a directory", path)
	}

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("checksum: read %s: %w", path, err)
	}
	return sum, nil
}
