package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	p := DefaultParams()
	// Keep test cost low.
	p.MemoryKiB = 8 * 1024
	p.Iterations = 1

	enc, err := Hash("correct horse battery", p)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %s", enc)
	}

	ok, err := Verify("correct horse battery", enc)
	if err != nil || !ok {
		t.Fatalf("Verify match: ok=%v err=%v", ok, err)
	}

	ok, err = Verify("wrong password", enc)
	if err != nil {
		t.Fatalf("Verify mismatch errored: %v", err)
	}
	if ok {
		t.Fatal("mismatched password verified")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	}
	for _, enc := range cases {
		if _, err := Verify("whatever", enc); err == nil {
			t.Errorf("expected error for %q", enc)
		}
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	// A hash claiming 1 GiB of memory must be refused, not computed.
	enc := "$argon2id$v=19$m=1048576,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
	if _, err := Verify("whatever", enc); err == nil {
		t.Fatal("expected oversized params to be rejected")
	}
}

func TestCheckStrength(t *testing.T) {
	pol := DefaultPolicy()

	cases := []struct {
		name string
		pw   string
		want error
	}{
		{"ok_mixed", "hunter2hunter", nil},
		{"ok_symbols", "pass!word#", nil},
		{"too_short", "Ab1!", ErrPasswordTooShort},
		{"single_class", "abcdefgh", ErrWeakPassword},
		{"digits_only", "12345678", ErrWeakPassword},
		{"too_long", strings.Repeat("aB", 200), ErrPasswordTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pol.CheckStrength(tc.pw); got != tc.want {
				t.Fatalf("CheckStrength(%q) = %v, want %v", tc.pw, got, tc.want)
			}
		})
	}
}
