package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// slackReplayWindow is how far a Slack request timestamp may drift from the
// server clock before the request is treated as a replay.
const slackReplayWindow = 300 * time.Second

var (
	// ErrReplay means the Slack timestamp fell outside the replay window.
	// It is checked before the signature, so a valid signature on a stale
	// request still fails.
	ErrReplay = errors.New("request timestamp outside replay window")

	// ErrSignature means the presented signature did not match.
	ErrSignature = errors.New("signature mismatch")
)

// validSignature compares a presented signature against the expected
// HMAC-SHA256 of material. Length inequality fails fast; matching lengths
// are compared in constant time.
func validSignature(secret, material []byte, presented string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(material)
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(presented) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(presented), []byte(expected))
}

// VerifySlack checks a Slack request signature per Slack's v0 construction:
// signature = "v0=" + HMAC-SHA256-hex("v0:" + timestamp + ":" + body).
func VerifySlack(secret, timestamp string, body []byte, signature string, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrReplay
	}
	drift := now.Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(slackReplayWindow/time.Second) {
		return ErrReplay
	}

	material := make([]byte, 0, len("v0:")+len(timestamp)+1+len(body))
	material = append(material, "v0:"...)
	material = append(material, timestamp...)
	material = append(material, ':')
	material = append(material, body...)

	const prefix = "v0="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return ErrSignature
	}
	if !validSignature([]byte(secret), material, signature[len(prefix):]) {
		return ErrSignature
	}
	return nil
}

// VerifyGitHub checks a GitHub request signature:
// signature = "sha256=" + HMAC-SHA256-hex(body). GitHub provides no
// timestamp at this layer, so there is no replay check.
func VerifyGitHub(secret string, body []byte, signature string) error {
	const prefix = "sha256="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return ErrSignature
	}
	if !validSignature([]byte(secret), body, signature[len(prefix):]) {
		return ErrSignature
	}
	return nil
}
