package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	Bearer              = "Bearer"
)

var (
	ErrMissingToken    = errors.New("token is missing")
	ErrMalformedHeader = errors.New("bearer token malformed")
	ErrInvalidToken    = errors.New("token is invalid")
)

type Config struct {
	Secret string        `yaml:"secret" envconfig:"JWT_SECRET" required:"true"`
	TTL    time.Duration `yaml:"ttl" envconfig:"JWT_TTL" default:"24h"`
}

type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens. The signing secret never leaves it.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg Config) *TokenManager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and expiry checks.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

func (m *TokenManager) Issue(userID int64) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "token.SignedString")
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and returns the embedded user id.
// Every failure collapses into ErrInvalidToken.
func (m *TokenManager) Parse(tokenStr string) (int64, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !m.now().Before(claims.ExpiresAt.Time) {
		return 0, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// ExtractToken takes the raw Authorization header value and returns the bearer token.
func ExtractToken(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || scheme != Bearer {
		return "", ErrMalformedHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
