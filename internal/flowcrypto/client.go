package flowcrypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncryptRequest builds an Envelope the way the WhatsApp client does. It is used
// to drive the endpoint from tests and local tooling.
func EncryptRequest(pub *rsa.PublicKey, aesKey, iv []byte, body any) (Envelope, error) {
	plaintext, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, aesKey, nil)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to wrap aes key: %w", err)
	}
	data, err := seal(aesKey, iv, plaintext)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EncryptedAESKey:   base64.StdEncoding.EncodeToString(wrapped),
		EncryptedFlowData: data,
		InitialVector:     base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// DecryptResponse opens a response body produced by Session.Encrypt.
func DecryptResponse(aesKey, iv []byte, encoded string, v any) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	flipped := FlipIV(iv)
	gcm, err := newGCM(aesKey, len(flipped))
	if err != nil {
		return err
	}
	plaintext, err := gcm.Open(nil, flipped, data, nil)
	if err != nil {
		return ErrAuthentication
	}
	return json.Unmarshal(plaintext, v)
}
