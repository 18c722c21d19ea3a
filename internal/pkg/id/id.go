package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// Len is the length of every identifier returned by New.
const Len = ulid.EncodedSize

// New generates a new ULID string. ULIDs sort by creation time, so a
// directory listing of check documents comes back in creation order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
