// Package attest signs finished game results so they can be verified later
// by anyone holding the public key.
package attest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"ctchen222/adaptive-tictactoe/internal/game"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer  = "adaptive-tictactoe"
	keySize = 2048
)

var ErrInvalidAttestation = errors.New("invalid attestation")

// Result is the attested record of one player-vs-AI game.
type Result struct {
	ID         int64           `json:"id"`
	PlayedAt   time.Time       `json:"played_at"`
	PlayerMark game.PlayerMark `json:"player_mark"`
	AIMark     game.PlayerMark `json:"ai_mark"`
	Outcome    string          `json:"outcome"`
	Difficulty string          `json:"difficulty"`
}

type resultClaims struct {
	Result Result `json:"result"`
	jwt.RegisteredClaims
}

// Signer issues PS256 tokens over results.
type Signer struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	ids     *snowflake.Node
}

// NewSigner wraps an existing key. node identifies this process in result IDs.
func NewSigner(key *rsa.PrivateKey, node int64) (*Signer, error) {
	ids, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create id node: %w", err)
	}
	return &Signer{private: key, public: &key.PublicKey, ids: ids}, nil
}

// LoadOrGenerate reads a PEM key pair, creating and saving a fresh RSA-2048
// pair when the private key file does not exist yet.
func LoadOrGenerate(privatePath, publicPath string, node int64) (*Signer, error) {
	if _, err := os.Stat(privatePath); errors.Is(err, os.ErrNotExist) {
		if err := generateKeyFiles(privatePath, publicPath); err != nil {
			return nil, err
		}
	}

	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	s, err := NewSigner(key, node)
	if err != nil {
		return nil, err
	}
	if pubPEM, err := os.ReadFile(publicPath); err == nil {
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		if !pub.Equal(&key.PublicKey) {
			return nil, fmt.Errorf("public key %s does not match private key", publicPath)
		}
	}
	return s, nil
}

func generateKeyFiles(privatePath, publicPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}

	if err := os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// Issue stamps r with a fresh ID and the current time and signs it.
func (s *Signer) Issue(r Result) (Result, string, error) {
	r.ID = s.ids.Generate().Int64()
	r.PlayedAt = time.Now().UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodPS256, resultClaims{
		Result: r,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			ID:       strconv.FormatInt(r.ID, 10),
			IssuedAt: jwt.NewNumericDate(r.PlayedAt),
		},
	})
	signed, err := token.SignedString(s.private)
	if err != nil {
		return Result{}, "", fmt.Errorf("failed to sign result: %w", err)
	}
	return r, signed, nil
}

// Verify checks the signature and returns the embedded result.
func (s *Signer) Verify(token string) (Result, error) {
	var claims resultClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodPS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAttestation, err)
	}
	if claims.ID != strconv.FormatInt(claims.Result.ID, 10) {
		return Result{}, fmt.Errorf("%w: id mismatch", ErrInvalidAttestation)
	}
	return claims.Result, nil
}
