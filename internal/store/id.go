package store

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	IDSize     = 32
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewID returns a fresh opaque record id.
func NewID() string {
	return gonanoid.MustGenerate(idAlphabet, IDSize)
}
