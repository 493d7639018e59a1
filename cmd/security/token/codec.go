package token

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	minSecretBytes = 32
)

// Config defines the signing parameters for the token codec.
type Config struct {
	// Issuer is the value set in the "iss" claim of both token classes.
	Issuer string

	// Secret is the HS256 signing key. Must be at least 32 bytes.
	Secret []byte

	// AccessTTL is the lifetime of access tokens (short: minutes).
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh tokens (long: days).
	RefreshTTL time.Duration
}

// DefaultConfig returns TTL defaults suitable for development.
// The secret has no default and must be provided.
func DefaultConfig() Config {
	return Config{
		Issuer:     "hub",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// Claims is the decoded identity carried by a verified token.
// SessionID is set only for refresh tokens, DeviceID only for access tokens.
type Claims struct {
	UserID    string
	SessionID string
	DeviceID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an access/refresh token pair issued together.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Codec signs and verifies the two token classes.
//
// Access and refresh tokens are independently verifiable and carry disjoint
// claim sets: access = subject + device id, refresh = subject + session id.
// A token of one class never verifies as the other.
type Codec struct {
	cfg Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, ErrConfig
	}
	if cfg.Issuer == "" || cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrConfig
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, ErrConfig
	}
	return &Codec{cfg: cfg}, nil
}

type wireClaims struct {
	TokenType string `json:"typ"`
	SessionID string `json:"sid,omitempty"`
	DeviceID  string `json:"did,omitempty"`
	jwt.RegisteredClaims
}

// IssuePair issues a fresh access/refresh pair for (userID, sessionID).
// deviceID may be empty for clients that do not identify a device.
func (c *Codec) IssuePair(userID, sessionID, deviceID string, now time.Time) (Pair, error) {
	accessExp := now.Add(c.cfg.AccessTTL)
	refreshExp := now.Add(c.cfg.RefreshTTL)

	access, err := c.sign(wireClaims{
		TokenType: typeAccess,
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}

	refresh, err := c.sign(wireClaims{
		TokenType: typeRefresh,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (c *Codec) sign(claims wireClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
}

// VerifyAccess verifies an access token and returns its claims.
// Any failure (signature, expiry, malformed input, wrong class) yields ErrInvalidToken.
func (c *Codec) VerifyAccess(tokenStr string, now time.Time) (Claims, error) {
	return c.verify(tokenStr, typeAccess, now)
}

// VerifyRefresh verifies a refresh token and returns its claims.
func (c *Codec) VerifyRefresh(tokenStr string, now time.Time) (Claims, error) {
	return c.verify(tokenStr, typeRefresh, now)
}

func (c *Codec) verify(tokenStr, wantType string, now time.Time) (Claims, error) {
	var wc wireClaims
	parsed, err := jwt.ParseWithClaims(tokenStr, &wc,
		func(t *jwt.Token) (any, error) { return c.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	if wc.TokenType != wantType || wc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	switch wantType {
	case typeAccess:
		if wc.SessionID != "" {
			return Claims{}, ErrInvalidToken
		}
	case typeRefresh:
		if wc.SessionID == "" || wc.DeviceID != "" {
			return Claims{}, ErrInvalidToken
		}
	}

	return Claims{
		UserID:    wc.Subject,
		SessionID: wc.SessionID,
		DeviceID:  wc.DeviceID,
		IssuedAt:  wc.IssuedAt.Time,
		ExpiresAt: wc.ExpiresAt.Time,
	}, nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
// Used to store refresh tokens and API keys without the signable secret.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
