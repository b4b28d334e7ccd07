package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const issuer = "redline-portal"

var (
	// ErrInvalidToken is returned for any token that fails decryption,
	// signature or claim validation.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrMissingSecret is returned when no session secret is configured.
	ErrMissingSecret = errors.New("session: secret is not configured")
)

// Codec seals claims into an opaque cookie value: the claims are signed as
// an HS256 JWT and the JWT is encrypted with XChaCha20-Poly1305. Both keys
// are derived from one secret.
type Codec struct {
	signingKey []byte
	aead       cipher.AEAD
	now        func() time.Time
}

// NewCodec derives the signing and encryption keys from secret.
func NewCodec(secret string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}

	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(issuer+" session keys"))
	signingKey := make([]byte, 32)
	encKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, fmt.Errorf("deriving signing key: %w", err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(encKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &Codec{signingKey: signingKey, aead: aead, now: time.Now}, nil
}

// Seal signs and encrypts the claims. Issuer, issued-at and token id are
// filled in; ExpiresAt must already be set.
func (c *Codec) Seal(claims Claims) (string, error) {
	if claims.Identity.ID == "" {
		return "", errors.New("session: identity id is required")
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("session: expiry is required")
	}

	claims.Issuer = issuer
	claims.Subject = claims.Identity.ID
	claims.IssuedAt = jwt.NewNumericDate(c.now().UTC())
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(signed)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts and validates a sealed token.
func (c *Codec) Open(token string) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil || len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return nil, ErrInvalidToken
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	signed, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(string(signed), &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Identity.ID == "" || claims.Subject != claims.Identity.ID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
