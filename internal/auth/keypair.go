package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	keyFileName    = "device_key"
	deviceFileName = "device_id"
)

// KeyPair is the device's ed25519 identity used for key-based login.
type KeyPair struct {
	Private ed25519.PrivateKey
}

// PublicKeyBase64 returns the base64-encoded public key.
func (kp *KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.Private.Public().(ed25519.PublicKey))
}

// EnsureKeyPair loads or generates the device keypair. The private key
// is stored base64-encoded in dir/device_key.
func EnsureKeyPair(dir string) (*KeyPair, error) {
	keyPath := filepath.Join(dir, keyFileName)

	data, err := os.ReadFile(keyPath)
	if err == nil && len(data) > 0 {
		privBytes, err := base64.StdEncoding.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode existing key: %w", err)
		}
		if len(privBytes) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("existing key has wrong size %d", len(privBytes))
		}
		return &KeyPair{Private: ed25519.PrivateKey(privBytes)}, nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(priv)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("write key: %w", err)
	}
	return &KeyPair{Private: priv}, nil
}

// EnsureDeviceID loads or generates the persistent device identifier
// sent with login requests.
func EnsureDeviceID(dir string) (string, error) {
	path := filepath.Join(dir, deviceFileName)

	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}
