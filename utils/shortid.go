package utils

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/speps/go-hashids/v2"
)

const tokenMinLength = 10

// TokenGenerator produces the short tokens that end up in job ids and
// transaction ids.
type TokenGenerator struct {
	h *hashids.HashID
}

func NewTokenGenerator(salt string) (*TokenGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = tokenMinLength
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &TokenGenerator{h: h}, nil
}

// New returns a fresh random token.
func (g *TokenGenerator) New() string {
	id := uuid.New()
	return g.encode(id[:8])
}

// Derive returns a token that is stable for the given seed. Handlers use it
// so a redelivered job produces the same downstream ids.
func (g *TokenGenerator) Derive(seed string) string {
	f := fnv.New64a()
	f.Write([]byte(seed))
	return g.encode(f.Sum(nil))
}

func (g *TokenGenerator) encode(b []byte) string {
	hi := int64(binary.BigEndian.Uint32(b[0:4]))
	lo := int64(binary.BigEndian.Uint32(b[4:8]))
	s, err := g.h.EncodeInt64([]int64{hi, lo})
	if err != nil {
		// only negative input fails, and the halves are always non-negative
		panic(err)
	}
	return s
}

// JobID builds "<prefix>@<token>".
func JobID(prefix, token string) string {
	return fmt.Sprintf("%s@%s", prefix, token)
}

// RecurringJobID builds "<title>@<time>@<token>", e.g. weekly@everyMonday@x1y2.
func RecurringJobID(title, when, token string) string {
	return fmt.Sprintf("%s@%s@%s", title, when, token)
}
