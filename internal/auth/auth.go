// Package auth signs Kalshi API requests with RSA-PSS. The rest of the
// system consumes it as an opaque header producer.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// WebSocketPath is the handshake path signed for streaming connections.
const WebSocketPath = "/trade-api/ws/v2"

// Credentials holds the API key ID and signing key.
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// LoadCredentials loads credentials from a key ID and a PEM key file.
// Both are required; a missing credential is a startup-fatal error.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key ID is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	key, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{KeyID: keyID, PrivateKey: key}, nil
}

// Headers returns the signed header set for an HTTP request.
// The signed message is timestamp_ms + method + path.
func (c *Credentials) Headers(method, path string) (http.Header, error) {
	ts := time.Now().UnixMilli()

	sig, err := c.sign(fmt.Sprintf("%d%s%s", ts, method, path))
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	h.Set("KALSHI-ACCESS-KEY", c.KeyID)
	h.Set("KALSHI-ACCESS-TIMESTAMP", strconv.FormatInt(ts, 10))
	h.Set("KALSHI-ACCESS-SIGNATURE", sig)
	return h, nil
}

// WebSocketHeaders returns the signed header set for the streaming
// handshake.
func (c *Credentials) WebSocketHeaders() (http.Header, error) {
	return c.Headers(http.MethodGet, WebSocketPath)
}

func (c *Credentials) sign(message string) (string, error) {
	hashed := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPSS(
		rand.Reader,
		c.PrivateKey,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}

	// PKCS#8 first, PKCS#1 as the legacy fallback.
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}
