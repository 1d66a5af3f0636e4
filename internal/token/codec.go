package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload embedded in every issued token. The set of fields is
// fixed; new claims get their own named field rather than an open map so
// verification stays exhaustive.
type Claims struct {
	Phone        string `json:"phone"`
	TokenVersion int64  `json:"ver"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact JWT strings. It holds no mutable state:
// the same {secret, algorithm, issuer} configuration always produces and
// accepts the same tokens, modulo the clock.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	now    func() time.Time
}

// NewCodec builds a codec for the given HMAC algorithm (HS256, HS384 or
// HS512). The clock is used for expiry checks during verification; pass nil
// for time.Now.
func NewCodec(secret []byte, algorithm, issuer string, now func() time.Time) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	if issuer == "" {
		return nil, errors.New("issuer tag is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: secret, method: method, issuer: issuer, now: now}, nil
}

// Issuer returns the issuer tag stamped into encoded tokens.
func (c *Codec) Issuer() string {
	return c.issuer
}

// Encode signs the claims and returns the compact token string. The codec's
// issuer tag overrides whatever the caller put in the claims.
func (c *Codec) Encode(claims Claims) (string, error) {
	claims.Issuer = c.issuer
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// DecodeAndVerify parses the token string and checks structure, algorithm,
// signature, issuer and expiry. On failure it returns one of the sentinel
// errors from this package; the signature check happens before any claims
// validation, so a tampered token reports ErrBadSignature even when it is
// also expired.
func (c *Codec) DecodeAndVerify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	return claims, nil
}

// keyFunc pins the algorithm: the library would otherwise accept any token
// whose alg header names a method it knows, which is exactly the confusion
// attack this closes.
func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != c.method.Alg() {
		return nil, ErrAlgorithmMismatch
	}
	return c.secret, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	default:
		return ErrMalformed
	}
}
