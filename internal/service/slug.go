package service

import (
	"crypto/rand"
	"math/big"
)

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// slugRounds lists slug lengths in the order they are tried, with the number
// of attempts made at each length.
var slugRounds = []struct {
	length   int
	attempts int
}{
	{6, 10},
	{8, 10},
}

type SlugGenerator func(length int) string

func RandomSlug(length int) string {
	max := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b)
}
