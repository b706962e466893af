package fingerprint

import "math/rand/v2"

// Printable ASCII range used for vector content, upper bound exclusive.
const (
	asciiLow  = 32
	asciiHigh = 126
)

func randomASCIIChar() byte {
	return byte(asciiLow + rand.IntN(asciiHigh-asciiLow))
}

func randomASCIIString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = randomASCIIChar()
	}
	return string(b)
}
