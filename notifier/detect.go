package notifier

import (
	"crypto/sha256"
	"encoding/hex"
)

// Detection is the outcome of comparing new content against the last stored
// fingerprint. Unchanged content is a legitimate result, not a failure.
type Detection struct {
	Fingerprint string
	Changed     bool
}

// Fingerprint returns the hex SHA-256 digest of raw.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// DetectChange computes the fingerprint of raw and compares it against the
// previously stored one. An empty prev means no fingerprint was ever stored
// for the stream; it never equals a hex digest, so first runs always count
// as changed.
func DetectChange(prev string, raw []byte) Detection {
	fp := Fingerprint(raw)

	return Detection{
		Fingerprint: fp,
		Changed:     prev != fp,
	}
}
