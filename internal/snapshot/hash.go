package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/kamusis/reel/internal/catalog"
)

// CatalogHash returns a sha256 (hex) over every movie's id, title and soup in
// catalog order.
func CatalogHash(movies []catalog.Movie) string {
	h := sha256.New()
	var buf [8]byte
	for _, m := range movies {
		binary.LittleEndian.PutUint64(buf[:], uint64(m.ID))
		_, _ = h.Write(buf[:])
		writeString(h, m.Title)
		writeString(h, m.Soup)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(s))
}
