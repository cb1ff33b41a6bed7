package flowcrypto

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

func TestLoadPrivateKeyFormats(t *testing.T) {
	key := privateKey(t)

	pkcs8DER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	encryptedDER, err := pkcs8.MarshalPrivateKey(key, []byte("hunter2"), nil)
	require.NoError(t, err)

	cases := []struct {
		name       string
		block      *pem.Block
		passphrase string
	}{
		{"pkcs1", &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}, ""},
		{"pkcs8", &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8DER}, ""},
		{"encrypted pkcs8", &pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: encryptedDER}, "hunter2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loaded, err := LoadPrivateKey(pem.EncodeToMemory(tc.block), tc.passphrase)
			require.NoError(t, err)
			assert.True(t, key.Equal(loaded))
		})
	}
}

func TestLoadPrivateKeyErrors(t *testing.T) {
	key := privateKey(t)
	encryptedDER, err := pkcs8.MarshalPrivateKey(key, []byte("hunter2"), nil)
	require.NoError(t, err)
	encrypted := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: encryptedDER})

	_, err = LoadPrivateKey([]byte("not a pem"), "")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = LoadPrivateKey(encrypted, "")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = LoadPrivateKey(encrypted, "wrong")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = LoadPrivateKey(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}}), "")
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestLoadPrivateKeyFile(t *testing.T) {
	key := privateKey(t)
	path := filepath.Join(t.TempDir(), "private.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	loaded, err := LoadPrivateKeyFile(path, "")
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKeyFile(filepath.Join(t.TempDir(), "missing.pem"), "")
	assert.Error(t, err)
}
