package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func slackSign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func githubSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySlack(t *testing.T) {
	const secret = "8f742231b10e8888abcd99yyyzzz85a5"
	now := time.Unix(1724000000, 0)
	ts := "1724000000"
	body := []byte("token=xyz&team_id=T1&command=%2Fhub&text=deploy")

	sig := slackSign(secret, ts, body)
	if err := VerifySlack(secret, ts, body, sig, now); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name      string
		secret    string
		timestamp string
		body      []byte
		sig       string
	}{
		{"tampered body", secret, ts, []byte("token=xyz&text=rm -rf"), sig},
		{"tampered timestamp", secret, "1724000001", body, sig},
		{"wrong secret", "another-secret-value-entirely!!", ts, body, sig},
		{"truncated signature", secret, ts, body, sig[:len(sig)-2]},
		{"missing prefix", secret, ts, body, sig[3:]},
		{"empty signature", secret, ts, body, ""},
		{"non-numeric timestamp", secret, "yesterday", body, sig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifySlack(tt.secret, tt.timestamp, tt.body, tt.sig, now); err == nil {
				t.Fatal("accepted")
			}
		})
	}
}

func TestVerifySlackReplayWindow(t *testing.T) {
	const secret = "signing-secret"
	body := []byte("text=hello")
	now := time.Unix(1724000000, 0)

	// 301 seconds stale with a perfectly valid signature: still rejected,
	// and by the replay check, not the signature check.
	stale := fmt.Sprint(now.Unix() - 301)
	err := VerifySlack(secret, stale, body, slackSign(secret, stale, body), now)
	if err != ErrReplay {
		t.Fatalf("err = %v, want ErrReplay", err)
	}

	// 300 seconds is the inclusive edge of the window.
	edge := fmt.Sprint(now.Unix() - 300)
	if err := VerifySlack(secret, edge, body, slackSign(secret, edge, body), now); err != nil {
		t.Fatalf("edge-of-window rejected: %v", err)
	}

	// Future drift counts too.
	future := fmt.Sprint(now.Unix() + 301)
	err = VerifySlack(secret, future, body, slackSign(secret, future, body), now)
	if err != ErrReplay {
		t.Fatalf("err = %v, want ErrReplay", err)
	}
}

func TestVerifyGitHub(t *testing.T) {
	const secret = "gh-webhook-secret"
	body := []byte(`{"action":"created","comment":{"body":"hi"}}`)

	sig := githubSign(secret, body)
	if err := VerifyGitHub(secret, body, sig); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	if err := VerifyGitHub(secret, []byte(`{"action":"created"}`), sig); err == nil {
		t.Fatal("tampered body accepted")
	}
	if err := VerifyGitHub("wrong-secret", body, sig); err == nil {
		t.Fatal("wrong secret accepted")
	}
	if err := VerifyGitHub(secret, body, "sha256="); err == nil {
		t.Fatal("empty digest accepted")
	}
	if err := VerifyGitHub(secret, body, sig[7:]); err == nil {
		t.Fatal("missing prefix accepted")
	}
}
