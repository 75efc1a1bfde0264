package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenTTL はアクセストークンの既定の有効期間（7日）です。
const AccessTokenTTL = 7 * 24 * time.Hour

var (
	// ErrTokenExpired は有効期限切れのトークンを表します。
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid は署名不正・形式不正のトークンを表します。
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Identity はトークンが表明する呼び出し元です。
type Identity struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
}

// Claims はアクセストークンのペイロードです。
type Claims struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenIssuer は HS256 署名のアクセストークンを発行・検証します。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer は TokenIssuer を作成します。ttl が0以下なら AccessTokenTTL を使います。
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock は時刻関数を差し替えたコピーを返します。
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// TTL はトークンの有効期間を返します。
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue は identity を埋め込んだトークンを発行します。
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	now := t.now()
	claims := Claims{
		ID:      id.ID,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify は署名と有効期限を検証し、トークンの identity を返します。
func (t *TokenIssuer) Verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{ID: claims.ID, IsAdmin: claims.IsAdmin}, nil
}
