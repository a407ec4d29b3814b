package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// DefaultIssuer names the token issuer when none is configured.
const DefaultIssuer = "cribbage"

const tokenExpiry = time.Hour

var (
	ErrSignerConfig   = errors.New("snapshot signer config is incomplete")
	ErrTokenInvalid   = errors.New("snapshot token is invalid")
	ErrSnapshotForged = errors.New("snapshot does not match its token")
)

// Signer mints and checks HS256 tokens that bind a snapshot to its authority.
type Signer struct {
	secret string
	issuer string
}

func NewSigner(secret, issuer string) *Signer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Signer{secret: secret, issuer: issuer}
}

// Sign returns a token over the snapshot's game, version, authority and state digest.
func (s *Signer) Sign(snap Snapshot) (string, error) {
	if s == nil || s.secret == "" {
		return "", ErrSignerConfig
	}
	digest, err := Digest(snap)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  snap.GameID,
		"exp":  time.Now().Add(tokenExpiry).Unix(),
		"jti":  uuid.NewString(),
		"ver":  snap.Version,
		"auth": snap.Authority,
		"dig":  digest,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks that tokenString was minted by this signer for exactly snap.
func (s *Signer) Verify(tokenString string, snap Snapshot) error {
	if s == nil || s.secret == "" {
		return ErrSignerConfig
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrTokenInvalid
	}

	digest, err := Digest(snap)
	if err != nil {
		return err
	}
	ver, _ := claims["ver"].(float64)
	switch {
	case claims["iss"] != s.issuer:
		return fmt.Errorf("%w: issuer %v", ErrTokenInvalid, claims["iss"])
	case claims["sub"] != snap.GameID,
		claims["auth"] != snap.Authority,
		int64(ver) != snap.Version,
		claims["dig"] != digest:
		return ErrSnapshotForged
	}
	return nil
}

// Digest hashes the canonical JSON encoding of the snapshot's state, so the
// value survives either codec.
func Digest(snap Snapshot) (string, error) {
	g, err := snap.Decode()
	if err != nil {
		return "", err
	}
	canonical, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
