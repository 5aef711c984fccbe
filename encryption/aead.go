package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when a ciphertext fails authentication, usually
// because it was sealed with a different key or purpose.
var ErrDecrypt = stderrors.New("encryption: message authentication failed")

// sealer is the nonce-prefixed, base64 wire format shared by both ciphers.
type sealer struct {
	aead cipher.AEAD
	ad   []byte
}

func deriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

func (s *sealer) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), s.ad)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *sealer) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], s.ad)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
