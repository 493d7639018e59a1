// Package auth orchestrates registration, login, verification, refresh
// rotation, and logout over the identity, session, and API key stores.
package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"hub/cmd/identity"
	"hub/cmd/internal/auth/session"
	"hub/cmd/security/password"
	"hub/cmd/security/token"

	"github.com/google/uuid"
)

const minDisplayNameChars = 2

// Service implements the Hub auth state machine over (User, Session).
type Service struct {
	log      *slog.Logger
	users    identity.Store
	sessions session.Store
	codec    *token.Codec
	policy   password.Policy
	params   password.Params
}

// NewService constructs a Service.
func NewService(log *slog.Logger, users identity.Store, sessions session.Store, codec *token.Codec) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:      log,
		users:    users,
		sessions: sessions,
		codec:    codec,
		policy:   password.DefaultPolicy(),
		params:   password.DefaultParams(),
	}
}

// UserView is the public projection of a user; it never carries the hash.
type UserView struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   *string
	CreatedAt   time.Time
}

// TokenBundle is what credential operations hand back to the boundary layer.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func toView(u identity.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}

// Register validates input, creates the user and a fresh session, and issues
// a token pair.
func (s *Service) Register(ctx context.Context, now time.Time, email, plainPassword, displayName string) (UserView, TokenBundle, error) {
	email = identity.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return UserView{}, TokenBundle{}, invalidRequest("invalid email address")
	}
	if err := s.policy.CheckStrength(plainPassword); err != nil {
		return UserView{}, TokenBundle{}, invalidRequest(err.Error())
	}
	displayName = strings.TrimSpace(displayName)
	if utf8.RuneCountInString(displayName) < minDisplayNameChars {
		return UserView{}, TokenBundle{}, invalidRequest("display name too short")
	}

	hash, err := password.Hash(plainPassword, s.params)
	if err != nil {
		return UserView{}, TokenBundle{}, internal(err)
	}

	id, err := identity.NewID(now)
	if err != nil {
		return UserView{}, TokenBundle{}, internal(err)
	}
	u := identity.User{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if identity.IsConflict(err) {
			return UserView{}, TokenBundle{}, conflict("email already registered")
		}
		return UserView{}, TokenBundle{}, internal(err)
	}

	bundle, err := s.issueSession(ctx, now, u.ID, nil)
	if err != nil {
		return UserView{}, TokenBundle{}, err
	}
	return toView(u), bundle, nil
}

// Login checks credentials and opens a new session. Multiple concurrent
// sessions per user are allowed, one per login/device.
func (s *Service) Login(ctx context.Context, now time.Time, email, plainPassword, deviceID string) (UserView, TokenBundle, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return UserView{}, TokenBundle{}, unauthorized()
		}
		return UserView{}, TokenBundle{}, internal(err)
	}

	ok, err := password.Verify(plainPassword, u.PasswordHash)
	if err != nil {
		return UserView{}, TokenBundle{}, internal(err)
	}
	if !ok {
		return UserView{}, TokenBundle{}, unauthorized()
	}

	var dev *string
	if d := strings.TrimSpace(deviceID); d != "" {
		dev = &d
	}
	bundle, err := s.issueSession(ctx, now, u.ID, dev)
	if err != nil {
		return UserView{}, TokenBundle{}, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Error("auth.login.touch.fail", "err", err, "user_id", u.ID)
	}
	return toView(u), bundle, nil
}

// Verify decodes an access token and returns the subject's public view.
// It is stateless: it never touches the session store.
func (s *Service) Verify(ctx context.Context, accessToken string, now time.Time) (UserView, error) {
	claims, err := s.codec.VerifyAccess(accessToken, now)
	if err != nil {
		return UserView{}, unauthorized()
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return UserView{}, notFound("user not found")
		}
		return UserView{}, internal(err)
	}
	return toView(u), nil
}

// UserByID returns the public view of a user already authenticated upstream.
func (s *Service) UserByID(ctx context.Context, userID string) (UserView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return UserView{}, notFound("user not found")
		}
		return UserView{}, internal(err)
	}
	return toView(u), nil
}

// Refresh rotates a session: it verifies the refresh token, compares its
// digest against the session row, and swaps in a new pair atomically.
//
// Failure policy (deliberately asymmetric):
//   - session expired: the stale row is deleted, then unauthorized;
//   - digest mismatch: the row is kept, the event is logged as a possible
//     reuse of a rotated-out token, then unauthorized.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (TokenBundle, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken, now)
	if err != nil {
		return TokenBundle{}, unauthorized()
	}

	row, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if err == session.ErrNotFound {
			return TokenBundle{}, unauthorized()
		}
		return TokenBundle{}, internal(err)
	}

	if !row.ExpiresAt.After(now) {
		if err := s.sessions.Delete(ctx, row.ID); err != nil {
			s.log.Error("auth.refresh.expire_delete.fail", "err", err, "session_id", row.ID)
		}
		return TokenBundle{}, unauthorized()
	}

	presented := token.HashSHA256Hex(refreshToken)
	if presented != row.RefreshTokenHash {
		// A rotated-out token came back. Security event, not a lookup miss.
		s.log.Warn("auth.refresh.reuse_detected", "session_id", row.ID, "user_id", row.UserID)
		return TokenBundle{}, unauthorized()
	}

	deviceID := ""
	if row.DeviceID != nil {
		deviceID = *row.DeviceID
	}
	pair, err := s.codec.IssuePair(row.UserID, row.ID, deviceID, now)
	if err != nil {
		return TokenBundle{}, internal(err)
	}

	newHash := token.HashSHA256Hex(pair.RefreshToken)
	if err := s.sessions.Rotate(ctx, now, row.ID, presented, newHash, pair.RefreshExpiresAt); err != nil {
		if err == session.ErrRotationConflict {
			// A concurrent refresh won; this caller holds stale data now.
			return TokenBundle{}, unauthorized()
		}
		return TokenBundle{}, internal(err)
	}

	return TokenBundle{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	}, nil
}

// Logout deletes a session by ID. Idempotent.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return internal(err)
	}
	return nil
}

// LogoutByRefreshToken deletes the session referenced by a refresh token.
// Unverifiable tokens are a no-op: teardown is best-effort and idempotent.
func (s *Service) LogoutByRefreshToken(ctx context.Context, now time.Time, refreshToken string) error {
	claims, err := s.codec.VerifyRefresh(refreshToken, now)
	if err != nil {
		return nil
	}
	return s.Logout(ctx, claims.SessionID)
}

// LogoutAll deletes every session for the user ("log out everywhere").
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return internal(err)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, now time.Time, userID string, deviceID *string) (TokenBundle, error) {
	// Session IDs are opaque handles carried in the sid claim; UUIDs are
	// fine here, unlike entity IDs which need ULID ordering.
	sessionID := uuid.NewString()

	dev := ""
	if deviceID != nil {
		dev = *deviceID
	}
	pair, err := s.codec.IssuePair(userID, sessionID, dev, now)
	if err != nil {
		return TokenBundle{}, internal(err)
	}

	err = s.sessions.Create(ctx, session.Row{
		ID:               sessionID,
		UserID:           userID,
		DeviceID:         deviceID,
		RefreshTokenHash: token.HashSHA256Hex(pair.RefreshToken),
		ExpiresAt:        pair.RefreshExpiresAt,
		CreatedAt:        now,
	})
	if err != nil {
		return TokenBundle{}, internal(err)
	}

	return TokenBundle{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	}, nil
}
