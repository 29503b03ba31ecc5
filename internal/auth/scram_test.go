package auth_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/lattice-db/tarantool-go/internal/auth"
)

// encodedSalt base64-encodes the 32 bytes 0x00..0x1f, giving a
// deterministic 44-character payload whose first 20 decoded bytes are
// 0x00..0x13.
const encodedSalt = "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="

func buildGreeting(version, salt string) []byte {
	g := make([]byte, auth.GreetingSize)
	copy(g, version)
	g[63] = '\n'
	copy(g[64:], salt)
	g[127] = '\n'
	return g
}

func TestParseGreeting(t *testing.T) {
	t.Parallel()

	greeting := buildGreeting("Tarantool 2.11.0 (Binary)", encodedSalt)

	version, salt, err := auth.ParseGreeting(greeting)
	if err != nil {
		t.Fatalf("ParseGreeting: %v", err)
	}
	if version != "Tarantool 2.11.0 (Binary)" {
		t.Fatalf("got version %q", version)
	}
	if salt != encodedSalt {
		t.Fatalf("got salt %q, want %q", salt, encodedSalt)
	}
}

func TestParseGreetingWrongSize(t *testing.T) {
	t.Parallel()

	_, _, err := auth.ParseGreeting(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for short greeting")
	}
}

func TestScramble(t *testing.T) {
	t.Parallel()

	scramble, err := auth.Scramble("qwerty", encodedSalt)
	if err != nil {
		t.Fatalf("Scramble: %v", err)
	}

	want := "d26d8f53f48df66ab13f908ec2836d07670f4a2e"
	got := hex.EncodeToString(scramble)
	if got != want {
		t.Fatalf("got scramble %s, want %s", got, want)
	}
}

func TestScrambleEmptyPassword(t *testing.T) {
	t.Parallel()

	scramble, err := auth.Scramble("", encodedSalt)
	if err != nil {
		t.Fatalf("Scramble: %v", err)
	}

	want := "767be93ed197083818f15db91fd7d52407ad353e"
	got := hex.EncodeToString(scramble)
	if got != want {
		t.Fatalf("got scramble %s, want %s", got, want)
	}
}

func TestScrambleIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := auth.Scramble("qwerty", encodedSalt)
	if err != nil {
		t.Fatalf("Scramble: %v", err)
	}
	b, err := auth.Scramble("qwerty", encodedSalt)
	if err != nil {
		t.Fatalf("Scramble: %v", err)
	}
	if !strings.EqualFold(hex.EncodeToString(a), hex.EncodeToString(b)) {
		t.Fatal("expected deterministic scramble for identical inputs")
	}
}

func TestScrambleBadSalt(t *testing.T) {
	t.Parallel()

	if _, err := auth.Scramble("qwerty", "not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64 salt")
	}
}
