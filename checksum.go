package imagefield

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
)

var hashers = map[ChecksumAlgorithm]func() hash.Hash{
	ChecksumSHA256: sha256.New,
	ChecksumCRC32:  func() hash.Hash { return crc32.NewIEEE() },
	ChecksumXXHash: func() hash.Hash { return xxhash.New() },
}

// CalculateChecksum hashes everything r yields and returns the hex digest.
// Unknown algorithms fail with ErrNotSupported before r is touched.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	newHash, ok := hashers[algorithm]
	if !ok {
		return "", fmt.Errorf("%w: checksum algorithm %q", ErrNotSupported, algorithm)
	}

	h := newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("checksum %s: %w", algorithm, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
