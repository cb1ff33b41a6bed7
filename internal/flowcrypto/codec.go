package flowcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	tagSize    = 16
	aesKeySize = 16
)

// Envelope is the encrypted request body posted by WhatsApp to the flow endpoint.
type Envelope struct {
	EncryptedAESKey   string `json:"encrypted_aes_key" binding:"required"`
	EncryptedFlowData string `json:"encrypted_flow_data" binding:"required"`
	InitialVector     string `json:"initial_vector" binding:"required"`
}

// Codec decrypts flow requests with the business private key. It holds no
// per-request state and is safe for concurrent use.
type Codec struct {
	key *rsa.PrivateKey
}

func NewCodec(key *rsa.PrivateKey) (*Codec, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key is nil", ErrInvalidKey)
	}
	return &Codec{key: key}, nil
}

// Session carries the AES key and request IV needed to encrypt the matching response.
// It must not outlive the exchange it was created for.
type Session struct {
	key []byte
	iv  []byte
}

// Decrypt opens env and unmarshals the plaintext JSON into v.
func (c *Codec) Decrypt(env Envelope, v any) (*Session, error) {
	wrappedKey, err := base64.StdEncoding.DecodeString(env.EncryptedAESKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted_aes_key: %v", ErrMalformedEnvelope, err)
	}
	flowData, err := base64.StdEncoding.DecodeString(env.EncryptedFlowData)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted_flow_data: %v", ErrMalformedEnvelope, err)
	}
	iv, err := base64.StdEncoding.DecodeString(env.InitialVector)
	if err != nil {
		return nil, fmt.Errorf("%w: initial_vector: %v", ErrMalformedEnvelope, err)
	}

	aesKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, c.key, wrappedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(aesKey) != aesKeySize {
		return nil, fmt.Errorf("%w: unwrapped key is %d bytes, want %d", ErrDecryption, len(aesKey), aesKeySize)
	}

	if len(iv) == 0 {
		return nil, fmt.Errorf("%w: empty initial_vector", ErrMalformedEnvelope)
	}
	if len(flowData) < tagSize {
		return nil, fmt.Errorf("%w: encrypted_flow_data shorter than tag", ErrMalformedEnvelope)
	}

	gcm, err := newGCM(aesKey, len(iv))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := gcm.Open(nil, iv, flowData, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	return &Session{key: aesKey, iv: iv}, nil
}

// Encrypt serializes v and seals it with the session key under the flipped IV.
// The result is base64(ciphertext || tag), the exact response body WhatsApp expects.
func (s *Session) Encrypt(v any) (string, error) {
	if s == nil {
		return "", errors.New("flowcrypto: nil session")
	}
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}
	return seal(s.key, FlipIV(s.iv), plaintext)
}

// FlipIV returns a new slice holding the bitwise complement of iv.
func FlipIV(iv []byte) []byte {
	flipped := make([]byte, len(iv))
	for i, b := range iv {
		flipped[i] = ^b
	}
	return flipped
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func seal(key, iv, plaintext []byte) (string, error) {
	gcm, err := newGCM(key, len(iv))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nil, iv, plaintext, nil)), nil
}
