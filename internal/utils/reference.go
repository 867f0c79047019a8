package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

// referenceCharset is the alphabet for the random suffix of generated
// identifiers.  Uppercase letters and digits keep references readable over
// the phone and safe in URLs.
const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference produces a human-shareable identifier of the form
// <prefix><unix-millis><5 random chars>, e.g. "BK1748851494123X7Q2M".  The
// time component keeps references roughly sortable; the random suffix makes
// collisions unlikely.  Uniqueness is still enforced by the database, and
// callers regenerate on a duplicate-key failure.
func GenerateReference(prefix string) (string, error) {
	suffix := make([]byte, 5)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	for i := range suffix {
		suffix[i] = referenceCharset[int(suffix[i])%len(referenceCharset)]
	}
	return fmt.Sprintf("%s%d%s", prefix, time.Now().UTC().UnixMilli(), suffix), nil
}
