package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator issues opaque identifiers for rounds, submissions and votes.
// Implementations must be safe for concurrent use.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator issues 32-char hex ids backed by crypto/rand.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	return hex.EncodeToString(buf[:]), nil
}
