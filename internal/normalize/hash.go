package normalize

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ContentHash computes the hex-encoded SHA-256 of raw bytes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum[:])
}

// JoinedHash computes a hex SHA-256 over raw followed by each part, with a
// null separator before every part so ("ab","c") and ("a","bc") differ.
func JoinedHash(raw []byte, parts ...string) string {
	h := sha256.New()
	h.Write(raw)
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
