package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// aead builds the AES-256-GCM cipher from the ENCRYPTION_KEY environment
// variable. The key may be raw 32 bytes or base64 of 32 bytes.
func aead() (cipher.AEAD, error) {
	key := os.Getenv("ENCRYPTION_KEY")
	if key == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable is not set")
	}

	keyBytes := []byte(key)
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil {
		keyBytes = decoded
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptData encrypts a string with AES-256-GCM. The nonce is prepended to
// the ciphertext and the whole blob is base64 encoded. Empty input encrypts
// to the empty string.
func EncryptData(data string) (string, error) {
	if data == "" {
		return "", nil
	}

	gcm, err := aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptData reverses EncryptData.
func DecryptData(encryptedData string) (string, error) {
	if encryptedData == "" {
		return "", nil
	}

	gcm, err := aead()
	if err != nil {
		return "", err
	}

	blob, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt data: %w", err)
	}
	return string(plaintext), nil
}

// MaskEmiratesID hides all but the last four characters of a national id for
// log output.
func MaskEmiratesID(id string) string {
	if len(id) <= 4 {
		return strings.Repeat("*", len(id))
	}
	return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
}
