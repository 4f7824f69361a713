package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashFile returns a short content hash of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return short(h.Sum(nil)), nil
}

// HashStrings fingerprints an ordered list of strings. Each part is length
// prefixed, so ["ab", "c"] and ["a", "bc"] hash differently.
func HashStrings(parts []string) string {
	h := sha256.New()
	var prefix [8]byte
	for _, part := range parts {
		n := uint64(len(part))
		for i := range prefix {
			prefix[i] = byte(n >> (8 * i))
		}
		h.Write(prefix[:])
		io.WriteString(h, part)
	}
	return short(h.Sum(nil))
}

func short(sum []byte) string {
	return hex.EncodeToString(sum)[:16]
}
