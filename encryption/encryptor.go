package encryption

import "fmt"

// Encryptor seals and opens short secrets such as a stored API key.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmChaCha20 is ChaCha20-Poly1305, the default.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"

	// AlgorithmAESGCM is AES-256-GCM.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
)

// Option configures the encryption service.
type Option func(*options)

type options struct {
	algorithm Algorithm
	purpose   string
}

// WithAlgorithm selects the encryption algorithm.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithPurpose binds ciphertexts to a label as associated data, so a value
// sealed for one purpose fails to open under another.
func WithPurpose(purpose string) Option {
	return func(o *options) { o.purpose = purpose }
}

// New creates an Encryptor with the given passphrase and options.
// The passphrase is hashed with SHA-256 to the 32-byte key both ciphers use.
func New(key string, opts ...Option) (Encryptor, error) {
	o := &options{algorithm: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(o)
	}
	if key == "" {
		return nil, fmt.Errorf("encryption: key is required")
	}

	switch o.algorithm {
	case AlgorithmChaCha20:
		return NewChaCha20(key, o.purpose)
	case AlgorithmAESGCM:
		return NewAESGCM(key, o.purpose)
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", o.algorithm)
	}
}
