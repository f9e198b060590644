// Package hasher produces content tokens from byte streams using one of
// the repository's chosen hash algorithms.
package hasher

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

// New returns a fresh hash.Hash for the given algorithm.
func New(algo models.HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case models.Sha1:
		return sha1.New(), nil
	case models.Sha256:
		return sha256.New(), nil
	case models.Sha512:
		return sha512.New(), nil
	default:
		return nil, ergiberr.New(ergiberr.UnknownHashAlgorithm, string(algo))
	}
}

// ParseAlgorithm validates a string against the closed set of supported
// algorithm names.
func ParseAlgorithm(s string) (models.HashAlgorithm, error) {
	switch models.HashAlgorithm(s) {
	case models.Sha1, models.Sha256, models.Sha512:
		return models.HashAlgorithm(s), nil
	default:
		return "", ergiberr.New(ergiberr.UnknownHashAlgorithm, s)
	}
}

// Sum streams r through the algorithm's hash and returns the lowercase-hex
// token. I/O errors on r surface unchanged (wrapped by the caller if
// needed).
func Sum(algo models.HashAlgorithm, r io.Reader) (models.Token, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return models.Token(hex.EncodeToString(h.Sum(nil))), nil
}

// TeeSum wraps w so that every byte written through it is also fed to the
// algorithm's hash; call Token after all writes to obtain the digest.
// Used by the content store to hash and persist a blob in one pass.
type TeeSum struct {
	h hash.Hash
	w io.Writer
}

// NewTeeSum creates a TeeSum that hashes everything written to it and also
// forwards the bytes to dest.
func NewTeeSum(algo models.HashAlgorithm, dest io.Writer) (*TeeSum, error) {
	h, err := New(algo)
	if err != nil {
		return nil, err
	}
	return &TeeSum{h: h, w: io.MultiWriter(h, dest)}, nil
}

func (t *TeeSum) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

// Token returns the hex digest of everything written so far.
func (t *TeeSum) Token() models.Token {
	return models.Token(hex.EncodeToString(t.h.Sum(nil)))
}

// Len reports the fixed hex length for an algorithm's tokens, used to
// validate on-disk blob paths.
func Len(algo models.HashAlgorithm) int {
	switch algo {
	case models.Sha1:
		return sha1.Size * 2
	case models.Sha256:
		return sha256.Size * 2
	case models.Sha512:
		return sha512.Size * 2
	default:
		panic(fmt.Sprintf("unknown hash algorithm %q", algo))
	}
}
