package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundAmountHalfAwayFromZero(t *testing.T) {
	require.Equal(t, 3.13, RoundAmount(3.125))
	require.Equal(t, -3.13, RoundAmount(-3.125))
	require.Equal(t, 10.34, RoundAmount(10.344))
	require.Equal(t, 10.35, RoundAmount(10.346))
	require.Equal(t, -12000.0, RoundAmount(-12000))
	require.Equal(t, 0.0, RoundAmount(0))
}

func TestAddOffset(t *testing.T) {
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	require.Equal(t, time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), AddOffset(base, 6, "months"))
	require.Equal(t, time.Date(2028, 1, 15, 0, 0, 0, 0, time.UTC), AddOffset(base, 2, "years"))
	// Unknown units fall back to months.
	require.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), AddOffset(base, 1, ""))
}

func TestValidatePhoneNumber(t *testing.T) {
	require.True(t, ValidatePhoneNumber("0501234567"))
	require.True(t, ValidatePhoneNumber("+971501234567"))
	require.True(t, ValidatePhoneNumber("  0551234567  "))

	require.False(t, ValidatePhoneNumber("0401234567"))
	require.False(t, ValidatePhoneNumber("+97150123456"))
	require.False(t, ValidatePhoneNumber("50123456789"))
	require.False(t, ValidatePhoneNumber(""))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "unit-test-key-0123456789abcdef!!")

	plaintext := "784-1990-1234567-1"
	encrypted, err := EncryptData(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, encrypted)

	// A fresh nonce every call means ciphertexts never repeat.
	encrypted2, err := EncryptData(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, encrypted, encrypted2)

	decrypted, err := DecryptData(encrypted)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptRequiresKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")

	_, err := EncryptData("secret")
	require.Error(t, err)

	// Empty input short-circuits before the key lookup.
	out, err := EncryptData("")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMaskEmiratesID(t *testing.T) {
	require.Equal(t, "**************67-1", MaskEmiratesID("784-1990-1234567-1"))
	require.Equal(t, "****", MaskEmiratesID("1234"))
	require.Equal(t, "", MaskEmiratesID(""))
}
