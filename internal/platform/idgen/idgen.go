// Package idgen produces short opaque identifiers: a type prefix followed by
// a random suffix (e.g. "mem_x7k2qf"), rather than a raw UUID.
package idgen

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

var encoding = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// New returns a short opaque id of the form "<prefix>_<13 random chars>".
func New(prefix string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the system's entropy source is broken;
		// there is nothing sensible to degrade to.
		panic("idgen: crypto/rand unavailable: " + err.Error())
	}
	suffix := strings.ToLower(encoding.EncodeToString(b[:]))
	return prefix + "_" + suffix
}

// HasPrefix reports whether id looks like it was minted with New(prefix, ...).
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
