// security/token.go
package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/session"
)

// TokenPayload is the decoded content of an access or refresh token
type TokenPayload struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
}

// AccessToken is the result of issuing an access token
type AccessToken struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// RefreshToken is the result of issuing a refresh token
type RefreshToken struct {
	Token     string
	ExpiresAt time.Time
}

type accessClaims struct {
	SessionUUID string `json:"session_uuid"`
	jwt.RegisteredClaims
}

// TokenIssuer creates, rotates and revokes session tokens. A token is valid
// only while its registry entry exists: the signed expiry is a ceiling, the
// registry is the source of truth.
type TokenIssuer struct {
	cfg      config.TokenConfiguration
	registry *session.Registry
}

func NewTokenIssuer(cfg config.TokenConfiguration, registry *session.Registry) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, registry: registry}
}

// AccessKey builds the registry key for one access session. The identity
// cache uses it to check that the presented token matches the stored one.
func (t *TokenIssuer) AccessKey(userID int64, sessionID string) string {
	return fmt.Sprintf("%s:%d:%s", t.cfg.RedisPrefix, userID, sessionID)
}

func (t *TokenIssuer) refreshKey(userID int64, raw string) string {
	return fmt.Sprintf("%s:%d:%s", t.cfg.RefreshPrefix, userID, raw)
}

func (t *TokenIssuer) extraInfoKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", t.cfg.ExtraInfoPrefix, sessionID)
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("%w: token signing: %v", aegis_errors.ErrServerError, err)
	}
	return signed, nil
}

// IssueAccessToken signs a fresh access token and registers it under
// (userID, sessionID). When multiLogin is false, all existing access
// sessions for the user are revoked first (single active session policy).
// Extra claims are stored in a separate sessionID-keyed entry with the same
// TTL, never inside the signed payload, to keep tokens small.
func (t *TokenIssuer) IssueAccessToken(ctx context.Context, userID int64, multiLogin bool, extra map[string]string) (AccessToken, error) {
	expire := time.Now().Add(t.cfg.Expire)
	sessionID := uuid.NewString()

	signed, err := t.sign(accessClaims{
		SessionUUID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expire),
		},
	})
	if err != nil {
		return AccessToken{}, err
	}

	if !multiLogin {
		prefix := fmt.Sprintf("%s:%d:", t.cfg.RedisPrefix, userID)
		if err := t.registry.DeleteByPrefix(ctx, prefix, ""); err != nil {
			return AccessToken{}, err
		}
	}

	if err := t.registry.Put(ctx, t.AccessKey(userID, sessionID), signed, t.cfg.Expire); err != nil {
		return AccessToken{}, err
	}

	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return AccessToken{}, fmt.Errorf("%w: extra claims marshal: %v", aegis_errors.ErrServerError, err)
		}
		if err := t.registry.Put(ctx, t.extraInfoKey(sessionID), string(data), t.cfg.Expire); err != nil {
			return AccessToken{}, err
		}
	}

	return AccessToken{Token: signed, SessionID: sessionID, ExpiresAt: expire}, nil
}

// IssueRefreshToken signs a refresh token carrying only subject and expiry
// and registers it keyed by its raw value. Refresh tokens intentionally
// carry no session ID and are validated independently of access sessions.
func (t *TokenIssuer) IssueRefreshToken(ctx context.Context, userID int64, multiLogin bool) (RefreshToken, error) {
	expire := time.Now().Add(t.cfg.RefreshExpire)

	signed, err := t.sign(jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(expire),
	})
	if err != nil {
		return RefreshToken{}, err
	}

	if !multiLogin {
		prefix := fmt.Sprintf("%s:%d:", t.cfg.RefreshPrefix, userID)
		if err := t.registry.DeleteByPrefix(ctx, prefix, ""); err != nil {
			return RefreshToken{}, err
		}
	}

	if err := t.registry.Put(ctx, t.refreshKey(userID, signed), signed, t.cfg.RefreshExpire); err != nil {
		return RefreshToken{}, err
	}

	return RefreshToken{Token: signed, ExpiresAt: expire}, nil
}

// RotateToken exchanges a presented refresh token for a new access token.
// The refresh token is looked up by exact value; an absent or mismatched
// entry fails with ErrTokenExpired and no access token is issued.
func (t *TokenIssuer) RotateToken(ctx context.Context, userID int64, refreshToken string, multiLogin bool, extra map[string]string) (AccessToken, error) {
	stored, ok, err := t.registry.Get(ctx, t.refreshKey(userID, refreshToken))
	if err != nil {
		return AccessToken{}, err
	}
	if !ok || stored != refreshToken {
		return AccessToken{}, fmt.Errorf("%w: refresh token, please login again", aegis_errors.ErrTokenExpired)
	}
	return t.IssueAccessToken(ctx, userID, multiLogin, extra)
}

// Decode verifies the signature and expiry of a token and returns its
// payload. Expiry maps to ErrTokenExpired, everything else to
// ErrTokenInvalid. Registry state is NOT consulted here; callers that need
// revocation awareness go through identity.Cache.Resolve.
func (t *TokenIssuer) Decode(tokenStr string) (TokenPayload, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.cfg.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenPayload{}, aegis_errors.ErrTokenExpired
		}
		return TokenPayload{}, aegis_errors.ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return TokenPayload{}, aegis_errors.ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return TokenPayload{}, aegis_errors.ErrTokenInvalid
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return TokenPayload{UserID: userID, SessionID: claims.SessionUUID, ExpiresAt: expiresAt}, nil
}

// Revoke deletes one access session
func (t *TokenIssuer) Revoke(ctx context.Context, userID int64, sessionID string) error {
	return t.registry.DeleteExact(ctx, t.AccessKey(userID, sessionID))
}

// RevokeRefresh deletes one refresh entry by raw token value
func (t *TokenIssuer) RevokeRefresh(ctx context.Context, userID int64, refreshToken string) error {
	return t.registry.DeleteExact(ctx, t.refreshKey(userID, refreshToken))
}

// RevokeAll deletes every access and refresh entry for the user, optionally
// sparing one access session. Refresh entries are keyed by raw value rather
// than session ID, so they can never be spared per-session and are always
// swept in full.
func (t *TokenIssuer) RevokeAll(ctx context.Context, userID int64, exceptSessionID string) error {
	exceptKey := ""
	if exceptSessionID != "" {
		exceptKey = t.AccessKey(userID, exceptSessionID)
	}
	if err := t.registry.DeleteByPrefix(ctx, fmt.Sprintf("%s:%d:", t.cfg.RedisPrefix, userID), exceptKey); err != nil {
		return err
	}
	return t.registry.DeleteByPrefix(ctx, fmt.Sprintf("%s:%d:", t.cfg.RefreshPrefix, userID), "")
}

// ExtraInfo returns the side-channel claims stored at issuance, if any
func (t *TokenIssuer) ExtraInfo(ctx context.Context, sessionID string) (map[string]string, error) {
	raw, ok, err := t.registry.Get(ctx, t.extraInfoKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var extra map[string]string
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return nil, fmt.Errorf("%w: extra claims unmarshal: %v", aegis_errors.ErrServerError, err)
	}
	return extra, nil
}
