package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/benmeehan/kiosk-agent/pkg/file"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize   = 32
	nonceSize = 12
)

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager implements AES-GCM sealing with a key derived per scope.
type EncryptionManager struct {
	fileClient file.FileOperations
	aesgcm     cipher.AEAD
}

// NewEncryptionManager creates a new EncryptionManager instance.
func NewEncryptionManager(fileClient file.FileOperations) *EncryptionManager {
	return &EncryptionManager{fileClient: fileClient}
}

// Initialize loads the master key from keyPath, creating it on first run,
// and derives the AES key for scope with HKDF-SHA256.
func (a *EncryptionManager) Initialize(keyPath, scope string) error {
	master, err := a.loadOrCreateKey(keyPath)
	if err != nil {
		return err
	}

	derived := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(scope)), derived); err != nil {
		return fmt.Errorf("failed to derive storage key: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	a.aesgcm, err = cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create AES-GCM: %w", err)
	}

	return nil
}

func (a *EncryptionManager) loadOrCreateKey(keyPath string) ([]byte, error) {
	exists, err := a.fileClient.IsFileExists(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat key file: %w", err)
	}

	if !exists {
		key := make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		if err := a.fileClient.WriteFileRaw(keyPath, key); err != nil {
			return nil, fmt.Errorf("failed to persist key: %w", err)
		}
		return key, nil
	}

	key, err := a.fileClient.ReadFileRaw(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid key size: got %d bytes, want %d bytes", len(key), keySize)
	}
	return key, nil
}

// Encrypt seals plaintext; the random nonce is prefixed to the output.
func (a *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return a.aesgcm.Seal(nonce[:], nonce[:], plaintext, nil), nil
}

// Decrypt opens a value produced by Encrypt.
func (a *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short: must include nonce and encrypted data")
	}

	plaintext, err := a.aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
