// Package auth implements the server's greeting parse and its
// SCRAM-SHA1-like challenge/response scramble. Both are pure functions
// over bytes; the connection core owns the socket I/O and the AUTH
// command exchange.
package auth

import (
	"crypto/sha1" //nolint:gosec // required by the wire protocol, not used for secrecy on its own
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedGreeting is returned when the 128-byte greeting does not
// have the expected two-line shape or its salt line is too short.
var ErrMalformedGreeting = errors.New("auth: malformed greeting")

// GreetingSize is the exact number of bytes the server sends immediately
// after accepting a connection, before any request may be written.
const GreetingSize = 128

const (
	lineSize    = GreetingSize / 2
	saltKeepLen = 44
	saltLen     = 20
)

// ParseGreeting splits the 128-byte greeting into its human-readable
// version banner and the 44-character encoded salt retained from the
// second line.
func ParseGreeting(greeting []byte) (version string, encodedSalt string, err error) {
	if len(greeting) != GreetingSize {
		return "", "", fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedGreeting, len(greeting), GreetingSize)
	}

	versionLine := greeting[:lineSize]
	saltLine := greeting[lineSize:]

	if len(saltLine) < saltKeepLen {
		return "", "", fmt.Errorf("%w: salt line shorter than %d bytes", ErrMalformedGreeting, saltKeepLen)
	}

	version = strings.TrimRight(string(versionLine), " \x00\r\n")
	encodedSalt = string(saltLine[:saltKeepLen])
	return version, encodedSalt, nil
}

// Scramble computes the client proof sent in an AUTH request's Tuple:
// salt = first 20 bytes of base64-decoded encodedSalt
// step1 = SHA1(password)
// step2 = SHA1(step1)
// step3 = SHA1(salt || step2)
// scramble[i] = step1[i] XOR step3[i]
func Scramble(password, encodedSalt string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return nil, fmt.Errorf("auth: decode salt: %w", err)
	}
	if len(decoded) < saltLen {
		return nil, fmt.Errorf("%w: decoded salt shorter than %d bytes", ErrMalformedGreeting, saltLen)
	}
	salt := decoded[:saltLen]

	step1 := sha1.Sum([]byte(password))
	step2 := sha1.Sum(step1[:])

	h := sha1.New()
	h.Write(salt)
	h.Write(step2[:])
	step3 := h.Sum(nil)

	scramble := make([]byte, saltLen)
	for i := range scramble {
		scramble[i] = step1[i] ^ step3[i]
	}
	return scramble, nil
}
