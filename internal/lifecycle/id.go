package lifecycle

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// IDPrefix starts every ticket identifier.
	IDPrefix = "TKT-"

	// IDSuffixLength is the number of random base36 characters after the date stamp.
	IDSuffixLength = 4

	idDateLayout = "20060102"
	base36Chars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxAttempts  = 100

	// largest multiple of 36 that fits in a byte
	rejectAbove = 252
)

// IDGenerator produces human-readable ticket identifiers.
type IDGenerator interface {
	// NewID returns an identifier for which exists reports false.
	NewID(exists func(id string) bool) (string, error)
}

// RandomIDGenerator builds TKT-YYYYMMDD-XXXX identifiers from the clock and a random source.
type RandomIDGenerator struct {
	clock  Clock
	random io.Reader
}

// NewRandomIDGenerator returns a generator backed by crypto/rand.
func NewRandomIDGenerator(clock Clock) *RandomIDGenerator {
	return NewIDGeneratorWithSource(clock, rand.Reader)
}

// NewIDGeneratorWithSource allows tests to pin the random source.
func NewIDGeneratorWithSource(clock Clock, random io.Reader) *RandomIDGenerator {
	if clock == nil {
		clock = SystemClock
	}
	return &RandomIDGenerator{clock: clock, random: random}
}

// NewID checks every candidate against exists before accepting it.
func (g *RandomIDGenerator) NewID(exists func(id string) bool) (string, error) {
	stamp := g.clock().UTC().Format(idDateLayout)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := g.candidate(stamp)
		if err != nil {
			return "", err
		}
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique ticket id after %d attempts", maxAttempts)
}

func (g *RandomIDGenerator) candidate(stamp string) (string, error) {
	var b strings.Builder
	b.WriteString(IDPrefix)
	b.WriteString(stamp)
	b.WriteByte('-')
	buf := make([]byte, 1)
	for b.Len() < len(IDPrefix)+len(stamp)+1+IDSuffixLength {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("generate random: %w", err)
		}
		// reject the tail of the byte range so every character is equally likely
		if buf[0] >= rejectAbove {
			continue
		}
		b.WriteByte(base36Chars[int(buf[0])%len(base36Chars)])
	}
	return b.String(), nil
}

// ValidID reports whether id has the TKT-YYYYMMDD-XXXX shape.
func ValidID(id string) bool {
	rest, ok := strings.CutPrefix(id, IDPrefix)
	if !ok || len(rest) != len(idDateLayout)+1+IDSuffixLength {
		return false
	}
	if _, err := time.Parse(idDateLayout, rest[:len(idDateLayout)]); err != nil {
		return false
	}
	if rest[len(idDateLayout)] != '-' {
		return false
	}
	for _, c := range rest[len(idDateLayout)+1:] {
		if !strings.ContainsRune(base36Chars, c) {
			return false
		}
	}
	return true
}
