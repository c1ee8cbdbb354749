package serialization

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes the SHA-256 checksum of everything read from r.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ChecksumFile returns the size and SHA-256 of the file at path. Export uses it
// to fingerprint whole artifacts, .onnx included.
func ChecksumFile(path string) (int64, [32]byte, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller-controlled artifact path
	if err != nil {
		return 0, [32]byte{}, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, [32]byte{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return n, sum, nil
}

// ValidateChecksum returns ErrChecksumMismatch if computed differs from stored.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
