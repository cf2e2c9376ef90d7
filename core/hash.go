package core

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/go-crypt/x/blake2b"
)

// HashContent returns the hex BLAKE2b-256 digest of everything read from r.
func HashContent(r io.Reader) (string, error) {
	h, err := blake2b.New(32, nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the content hash of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashContent(f)
}

// HashBytes returns the content hash of b.
func HashBytes(b []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
