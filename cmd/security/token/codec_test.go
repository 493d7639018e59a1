package token

import (
	"strings"
	"testing"
	"time"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Secret = []byte("0123456789abcdef0123456789abcdef")
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestIssuePair_RoundTrip(t *testing.T) {
	c := testCodec(t)
	now := time.Now().UTC()

	pair, err := c.IssuePair("user-1", "sess-1", "device-1", now)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if !pair.AccessExpiresAt.After(now) || !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatalf("unexpected expiries: access=%v refresh=%v", pair.AccessExpiresAt, pair.RefreshExpiresAt)
	}

	ac, err := c.VerifyAccess(pair.AccessToken, now.Add(time.Second))
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if ac.UserID != "user-1" || ac.DeviceID != "device-1" || ac.SessionID != "" {
		t.Fatalf("access claims: %+v", ac)
	}

	rc, err := c.VerifyRefresh(pair.RefreshToken, now.Add(time.Second))
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if rc.UserID != "user-1" || rc.SessionID != "sess-1" || rc.DeviceID != "" {
		t.Fatalf("refresh claims: %+v", rc)
	}
}

func TestVerify_ClassesAreDisjoint(t *testing.T) {
	c := testCodec(t)
	now := time.Now().UTC()

	pair, err := c.IssuePair("user-1", "sess-1", "", now)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := c.VerifyAccess(pair.RefreshToken, now); err == nil {
		t.Fatal("refresh token verified as access token")
	}
	if _, err := c.VerifyRefresh(pair.AccessToken, now); err == nil {
		t.Fatal("access token verified as refresh token")
	}
}

func TestVerify_Expiry(t *testing.T) {
	c := testCodec(t)
	now := time.Now().UTC()

	pair, err := c.IssuePair("user-1", "sess-1", "", now)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := c.VerifyAccess(pair.AccessToken, now.Add(c.cfg.AccessTTL+time.Minute)); err == nil {
		t.Fatal("expected expired access token to fail")
	}
	if _, err := c.VerifyRefresh(pair.RefreshToken, now.Add(c.cfg.RefreshTTL+time.Minute)); err == nil {
		t.Fatal("expected expired refresh token to fail")
	}
}

func TestVerify_UntrustedInput(t *testing.T) {
	c := testCodec(t)
	now := time.Now().UTC()

	other := testCodec(t)
	other.cfg.Secret = []byte("ffffffffffffffffffffffffffffffff")
	pair, err := other.IssuePair("user-1", "sess-1", "", now)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong_secret": pair.AccessToken,
		"truncated":    pair.AccessToken[:len(pair.AccessToken)/2],
		"mangled":      strings.Replace(pair.AccessToken, ".", "_", 1),
	}
	for name, tok := range cases {
		if _, err := c.VerifyAccess(tok, now); err == nil {
			t.Errorf("%s: expected verification failure", name)
		}
	}
}

func TestNewCodec_RejectsShortSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Secret = []byte("short")
	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestHashSHA256Hex(t *testing.T) {
	a := HashSHA256Hex("abc")
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64", len(a))
	}
	if a != HashSHA256Hex("abc") {
		t.Fatal("digest not deterministic")
	}
	if a == HashSHA256Hex("abd") {
		t.Fatal("distinct inputs collided")
	}
}
