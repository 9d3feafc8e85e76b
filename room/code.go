package room

import (
	"math/rand"
	"strings"
)

// CodeAlphabet leaves out 0/O and 1/I.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxCodeAttempts = 100

func randomCode(rng *rand.Rand, length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(CodeAlphabet[rng.Intn(len(CodeAlphabet))])
	}
	return b.String()
}

// allocateCode draws codes until one is not live.
func (m *Manager) allocateCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := m.newCode()
		if _, taken := m.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
