package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any credential the verifier rejects.
// Callers refuse the connection before registering any state.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims the identity service issues for relay access.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Config holds token verification settings.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Verifier validates bearer tokens issued by the external identity service.
// The relay only consumes tokens; issuance lives elsewhere.
type Verifier struct {
	cfg Config
}

// NewVerifier builds a verifier with the given configuration.
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// GenerateToken mints a token the verifier accepts. Production tokens come
// from the identity service; this exists for local development and tests.
func GenerateToken(cfg Config, userID, username, avatar string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Avatar:   avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// Verify parses and validates a bearer token and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}

	if v.cfg.Audience != "" {
		validAudience := false
		for _, aud := range claims.Audience {
			if aud == v.cfg.Audience {
				validAudience = true
				break
			}
		}
		if !validAudience {
			return nil, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
		}
	}

	return claims, nil
}
