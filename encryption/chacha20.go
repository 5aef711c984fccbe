package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Service encrypts with ChaCha20-Poly1305.
type ChaCha20Service struct {
	sealer
}

// NewChaCha20 creates a ChaCha20-Poly1305 service. purpose may be empty.
func NewChaCha20(key, purpose string) (*ChaCha20Service, error) {
	aead, err := chacha20poly1305.New(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}
	return &ChaCha20Service{sealer{aead: aead, ad: []byte(purpose)}}, nil
}

// AESGCMService encrypts with AES-256-GCM.
type AESGCMService struct {
	sealer
}

// NewAESGCM creates an AES-256-GCM service. purpose may be empty.
func NewAESGCM(key, purpose string) (*AESGCMService, error) {
	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &AESGCMService{sealer{aead: gcm, ad: []byte(purpose)}}, nil
}
