package flowcrypto

import "errors"

var (
	// ErrDecryption means the AES key could not be unwrapped with our private key.
	// WhatsApp treats HTTP 421 as a signal to refresh the public key and retry.
	ErrDecryption = errors.New("flowcrypto: failed to decrypt aes key")

	// ErrAuthentication means the GCM tag did not match the ciphertext.
	ErrAuthentication = errors.New("flowcrypto: authentication tag mismatch")

	// ErrMalformedEnvelope covers bad base64, short payloads and non-JSON plaintext.
	ErrMalformedEnvelope = errors.New("flowcrypto: malformed envelope")

	ErrInvalidKey = errors.New("flowcrypto: invalid private key")
)
