package provider

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Signature header name varies by provider version; all variants are
// accepted.
var signatureHeaders = []string{"Teya-Signature", "X-Teya-Signature", "X-Signature", "X-Payload-Signature"}

// Verifier checks webhook signatures over the raw, unparsed payload bytes.
// A nil *Verifier disables verification (a deployment risk, not a protocol
// requirement).
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier builds a Verifier from a base64-encoded ed25519 public key.
func NewVerifier(publicKeyB64 string) (*Verifier, error) {
	key, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("webhook public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &Verifier{key: ed25519.PublicKey(key)}, nil
}

// Verify fails closed: a missing or undecodable signature rejects the
// payload before any further processing.
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	var sigB64 string
	for _, name := range signatureHeaders {
		if s := headers.Get(name); s != "" {
			sigB64 = s
			break
		}
	}
	if sigB64 == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("%w: undecodable signature", ErrInvalidSignature)
	}
	if !ed25519.Verify(v.key, payload, sig) {
		return fmt.Errorf("%w: signature does not match payload", ErrInvalidSignature)
	}
	return nil
}
