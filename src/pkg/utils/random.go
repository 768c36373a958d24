package utils

import (
	"crypto/rand"
	"math/big"
)

// tempIDRunes omits 0/O and 1/I so ids survive being read over the phone
const tempIDRunes = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// TemporaryID returns a short verification-phase label like TMP-7KQ2M4XN.
// It is a display label only, never the record's identity.
func TemporaryID() string {
	b := make([]byte, 8)
	for i := range b {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(tempIDRunes))))
		b[i] = tempIDRunes[num.Int64()]
	}
	return "TMP-" + string(b)
}
