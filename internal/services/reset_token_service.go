package services

import (
	"time"

	"miniblog/internal/metrics"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultResetTokenTTL is the validity of a reset token when none is given.
const DefaultResetTokenTTL = 1800 * time.Second

type resetClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// ResetTokenService issues and verifies signed, expiring password reset tokens.
// Tokens are not single-use: they stay valid until they expire.
type ResetTokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewResetTokenService creates a new ResetTokenService keyed by secret.
func NewResetTokenService(secret string, defaultTTL time.Duration) *ResetTokenService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultResetTokenTTL
	}
	return &ResetTokenService{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *ResetTokenService) WithClock(now func() time.Time) *ResetTokenService {
	s.now = now
	return s
}

// Issue signs {user_id} with an expiry ttl from now. A non-positive ttl uses the default.
func (s *ResetTokenService) Issue(userID uint, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	// Claims carry whole seconds. Rounding the expiry up keeps at least ttl.
	issued := s.now()
	expires := issued.Add(ttl)
	if t := expires.Truncate(time.Second); t.Before(expires) {
		expires = t.Add(time.Second)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, resetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	metrics.ResetTokens.WithLabelValues("issued").Inc()
	return signed, nil
}

// Verify returns the user id bound to token. Bad signature, malformed
// payload and expiry all report ok == false and are indistinguishable.
func (s *ResetTokenService) Verify(tokenString string) (userID uint, ok bool) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == 0 {
		metrics.ResetTokens.WithLabelValues("rejected").Inc()
		return 0, false
	}

	metrics.ResetTokens.WithLabelValues("verified").Inc()
	return claims.UserID, true
}
