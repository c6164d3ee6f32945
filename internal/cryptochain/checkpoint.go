package cryptochain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkpointClaims anchors a chain's head hash outside the process.
// Exporting a checkpoint never touches the chain's state -- it is a
// read-only projection of (sequence number, head hash, issued at).
type checkpointClaims struct {
	SequenceNumber int    `json:"seq"`
	HeadHash       string `json:"head_hash"`
	jwt.RegisteredClaims
}

// ExportCheckpoint signs the chain's current tip as a compact JWT
// (HS256) using signingKey. When the chain is in keyed (HMAC) mode,
// callers typically pass the chain's own secret key; in plain mode, a
// separately managed checkpoint key is expected.
func ExportCheckpoint(chain *AuditChain, signingKey []byte) (string, error) {
	claims := checkpointClaims{
		SequenceNumber: chain.Len(),
		HeadHash:       chain.HeadHash(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
			Issuer:   "chronoguard-lite",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// VerifyCheckpoint recovers the sequence number and head hash from a
// checkpoint previously produced by ExportCheckpoint, rejecting it if
// the signature does not match signingKey.
func VerifyCheckpoint(token string, signingKey []byte) (sequenceNumber int, headHash string, err error) {
	parsed, err := jwt.ParseWithClaims(token, &checkpointClaims{}, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return 0, "", err
	}
	claims, ok := parsed.Claims.(*checkpointClaims)
	if !ok || !parsed.Valid {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	return claims.SequenceNumber, claims.HeadHash, nil
}
