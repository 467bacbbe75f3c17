package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 hex char token", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token, err := GenerateToken()
			require.NoError(t, err)
			assert.False(t, seen[token], "duplicate token generated")
			seen[token] = true
		}
	})
}

func TestHashToken(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, HashToken("abc"), HashToken("abc"))
	})

	t.Run("differs per input", func(t *testing.T) {
		assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("hash verifies against original password", func(t *testing.T) {
		hash, err := HashPassword("hunter2hunter2")
		require.NoError(t, err)
		assert.True(t, CheckPasswordHash("hunter2hunter2", hash))
	})

	t.Run("hash rejects wrong password", func(t *testing.T) {
		hash, err := HashPassword("hunter2hunter2")
		require.NoError(t, err)
		assert.False(t, CheckPasswordHash("wrongpassword", hash))
	})

	t.Run("same password generates different hashes", func(t *testing.T) {
		hash1, _ := HashPassword("hunter2hunter2")
		hash2, _ := HashPassword("hunter2hunter2")
		assert.NotEqual(t, hash1, hash2)
	})
}

func TestMaskPhone(t *testing.T) {
	t.Run("keeps prefix and last two digits", func(t *testing.T) {
		assert.Equal(t, "+155****34", MaskPhone("+15550001234"))
	})

	t.Run("fully masks short values", func(t *testing.T) {
		assert.Equal(t, "***", MaskPhone("+1555"))
	})
}

func TestSecretBox(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)

	t.Run("round trips plaintext", func(t *testing.T) {
		box, err := NewSecretBox(hexKey)
		require.NoError(t, err)
		require.NotNil(t, box)

		sealed, err := box.Seal("session-credential-blob")
		require.NoError(t, err)
		assert.NotEqual(t, "session-credential-blob", sealed)

		opened, err := box.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "session-credential-blob", opened)
	})

	t.Run("produces different ciphertexts for same plaintext", func(t *testing.T) {
		box, err := NewSecretBox(hexKey)
		require.NoError(t, err)

		a, _ := box.Seal("blob")
		b, _ := box.Seal("blob")
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects tampered ciphertext", func(t *testing.T) {
		box, err := NewSecretBox(hexKey)
		require.NoError(t, err)

		sealed, _ := box.Seal("blob")
		_, err = box.Open("x" + sealed[1:])
		assert.Error(t, err)
	})

	t.Run("nil box passes values through", func(t *testing.T) {
		box, err := NewSecretBox("")
		require.NoError(t, err)
		require.Nil(t, box)

		sealed, err := box.Seal("blob")
		require.NoError(t, err)
		assert.Equal(t, "blob", sealed)

		opened, err := box.Open("blob")
		require.NoError(t, err)
		assert.Equal(t, "blob", opened)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewSecretBox("abcd")
		assert.Error(t, err)
	})
}

func TestValidation(t *testing.T) {
	t.Run("validates international phone numbers", func(t *testing.T) {
		assert.True(t, IsValidPhone("+15550001234"))
		assert.True(t, IsValidPhone("+821012345678"))
		assert.False(t, IsValidPhone("15550001234"))
		assert.False(t, IsValidPhone("+0123"))
		assert.False(t, IsValidPhone(""))
	})

	t.Run("normalizes phone formatting", func(t *testing.T) {
		assert.Equal(t, "+15550001234", NormalizePhone(" +1 (555) 000-1234 "))
	})

	t.Run("validates email addresses", func(t *testing.T) {
		assert.True(t, IsValidEmail("user@example.com"))
		assert.False(t, IsValidEmail("user@"))
		assert.False(t, IsValidEmail("not an email"))
	})
}
