package source

import (
	"fmt"

	"github.com/minio/highwayhash"
)

// highwayhash requires a 32-byte key; a fixed key keeps hashes comparable
// across runs and machines, which the cache depends on.
var hashKey = []byte("glint.source.hash.v1.2024-format")

// HashBytes returns the content hash used as a cache key component.
func HashBytes(data []byte) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// Key length is a compile-time constant.
		panic(err)
	}
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
