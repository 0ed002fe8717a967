package export

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// HashAlgorithm identifies the checksum algorithm recorded with artifacts.
const HashAlgorithm = "SHA-256"

// ArtifactHash computes the hex-encoded SHA-256 checksum of artifact bytes.
// Identical documents produce identical checksums, so the audit trail can
// detect regenerated-but-unchanged reports.
func ArtifactHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 characters of a checksum for display.
func ShortHash(hash string) string {
	if len(hash) >= 8 {
		return hash[:8]
	}
	return hash
}

// HashFile computes the checksum of an artifact already on disk.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WrapExport(err, errors.CodeExportWrite, "failed to open artifact for hashing").
			WithContext("path", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WrapExport(err, errors.CodeExportWrite, "failed to hash artifact").
			WithContext("path", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
