package token

import "errors"

// Verification failures. All of them are final: a token that fails
// verification is rejected, never retried or partially trusted.
var (
	// ErrMalformed covers structural problems: wrong segment count, bad
	// base64, unparsable header or claims.
	ErrMalformed = errors.New("token malformed")

	// ErrBadSignature means the token parsed but its signature does not
	// verify under the configured secret.
	ErrBadSignature = errors.New("token signature invalid")

	// ErrExpired means signature and structure are fine but the token's
	// expiration instant has passed.
	ErrExpired = errors.New("token expired")

	// ErrAlgorithmMismatch means the token's alg header names anything
	// other than the single configured algorithm, including "none".
	ErrAlgorithmMismatch = errors.New("token algorithm not allowed")

	// ErrIssuerMismatch means the token was not issued by this service.
	ErrIssuerMismatch = errors.New("token issuer not recognized")
)
