package crypto

import (
	"bytes"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestPlain(t *testing.T) {
	t.Parallel()

	var c Plain
	stored, err := c.Seal("pass")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if string(stored) != "pass" {
		t.Fatalf("Plain must store verbatim, got %q", stored)
	}
	if !c.Match("pass", stored) {
		t.Fatalf("Match: expected true for same password")
	}
	if c.Match("Pass", stored) {
		t.Fatalf("Match: comparison must be case-sensitive")
	}
}

func TestArgon2_SealAndMatch(t *testing.T) {
	t.Parallel()

	var c Argon2
	s1, err := c.Seal("correct horse battery staple")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	s2, err := c.Seal("correct horse battery staple")
	if err != nil {
		t.Fatalf("Seal(2): %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("salts must differ between seals")
	}
	if !c.Match("correct horse battery staple", s1) || !c.Match("correct horse battery staple", s2) {
		t.Fatalf("Match: expected true for correct password")
	}
	if c.Match("wrong", s1) {
		t.Fatalf("Match: expected false for wrong password")
	}
	if c.Match("correct horse battery staple", s1[:10]) {
		t.Fatalf("Match: expected false for truncated credential")
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Credentials{"": Plain{}, "plain": Plain{}, "argon2": Argon2{}} {
		got, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ByName(%q) = %T, want %T", name, got, want)
		}
	}
	if _, err := ByName("md5"); err == nil {
		t.Fatalf("ByName(md5): expected error")
	}
}
