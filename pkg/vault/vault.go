// Package vault seals API tokens at rest.
//
// A master key is derived from the passphrase and a per-vault salt with
// argon2id and expanded into the sealing key with HKDF-SHA256. Tokens are
// sealed with XChaCha20-Poly1305; the token id is the additional data, so
// a sealed token only opens under the id it was sealed for.
//
// Sealed layout:
//
//	+----------------+----------------------------+
//	| nonce (24 B)   | ciphertext || tag (16 B)   |
//	+----------------+----------------------------+
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// SaltSize is the size of a vault salt.
const SaltSize = 16

const hkdfInfo = "hubconsole token sealing v1"

// Vault errors.
var (
	ErrDecrypt         = errors.New("vault: decryption failed")
	ErrEmptyPassphrase = errors.New("vault: empty passphrase")
	ErrShortCiphertext = errors.New("vault: ciphertext too short")
	ErrSaltSize        = errors.New("vault: invalid salt size")
)

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follow the argon2 RFC recommendation for interactive use.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4}

// Vault seals and opens tokens under one derived key. It is safe for
// concurrent use.
type Vault struct {
	aead cipher.AEAD
	salt []byte
}

// NewSalt returns a random salt for a new vault.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: generate salt: %w", err)
	}
	return salt, nil
}

// New derives the sealing key from passphrase and salt.
func New(passphrase string, salt []byte, p Params) (*Vault, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: %d", ErrSaltSize, len(salt))
	}
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		p = DefaultParams
	}

	master := argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("vault: expand key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Vault{aead: aead, salt: append([]byte(nil), salt...)}, nil
}

// Salt returns the vault salt.
func (v *Vault) Salt() []byte {
	return append([]byte(nil), v.salt...)
}

// Seal encrypts plaintext for id.
func (v *Vault) Seal(id string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize(), v.aead.NonceSize()+len(plaintext)+v.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault: generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, []byte(id)), nil
}

// Open decrypts a token sealed for id.
func (v *Vault) Open(id string, sealed []byte) ([]byte, error) {
	ns := v.aead.NonceSize()
	if len(sealed) < ns+v.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	plaintext, err := v.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(id))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
