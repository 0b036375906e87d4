// Package cipher wraps the AES-128-ECB scheme used by Tuya 3.3 devices.
//
// Two keys are in play: the per-device local key protecting TCP traffic, and
// a fixed key every device uses for its UDP presence broadcasts.
package cipher

import (
	"bytes"
	"crypto/aes"
	gocipher "crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andreburgaud/crypt2go/ecb"
	"github.com/andreburgaud/crypt2go/padding"
	"github.com/wheelibin/lanlight/internal/constants"
)

// BlockSize is the AES block size; ciphertexts are always a multiple of it.
const BlockSize = aes.BlockSize

// Cipher is immutable once built and safe for concurrent use.
type Cipher struct {
	block  gocipher.Block
	padder padding.Padding
}

// New builds a cipher from a raw 16 byte AES key.
func New(key []byte) (*Cipher, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("aes-128 key must be 16 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("error creating aes cipher: %w", err)
	}
	return &Cipher{block: block, padder: padding.NewPkcs7Padding(BlockSize)}, nil
}

// NewLocalKey builds the cipher for a device's local key as shown by the vendor app.
func NewLocalKey(localKey string) (*Cipher, error) {
	return New([]byte(localKey))
}

// NewBroadcast builds the cipher for UDP discovery announcements.
func NewBroadcast() *Cipher {
	key, _ := hex.DecodeString(constants.BroadcastKeyHex)
	c, err := New(key)
	if err != nil {
		panic(err)
	}
	return c
}

// Encrypt serialises v to compact JSON and encrypts it.
func (c *Cipher) Encrypt(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error serialising payload: %w", err)
	}
	return c.EncryptBytes(data)
}

// EncryptBytes pads data with PKCS#7 (1-16 bytes of value N) and encrypts it.
func (c *Cipher) EncryptBytes(data []byte) ([]byte, error) {
	padded, err := c.padder.Pad(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("error padding payload: %w", err)
	}
	out := make([]byte, len(padded))
	ecb.NewECBEncrypter(c.block).CryptBlocks(out, padded)
	return out, nil
}

// DecryptBytes decrypts and removes the padding when it is well formed.
// Malformed padding is left in place, callers cut the JSON body out themselves.
func (c *Cipher) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(data), BlockSize)
	}
	out := make([]byte, len(data))
	ecb.NewECBDecrypter(c.block).CryptBlocks(out, data)

	if unpadded, err := c.padder.Unpad(out); err == nil {
		return unpadded, nil
	}
	return out, nil
}

// Decrypt returns the plaintext as text, dropping invalid UTF-8 and surrounding whitespace.
func (c *Cipher) Decrypt(data []byte) (string, error) {
	out, err := c.DecryptBytes(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(out), "")), nil
}
