package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretAndVerify(t *testing.T) {
	h, err := Secret("Abcd1234!")
	assert.NoError(t, err)
	assert.NotEmpty(t, h)
	assert.NotEqual(t, "Abcd1234!", h)

	assert.True(t, Verify("Abcd1234!", h))
	assert.False(t, Verify("abcd1234!", h))
	assert.False(t, Verify("", h))
}

func TestSecretRejectsEmpty(t *testing.T) {
	_, err := Secret("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := Secret("same-secret")
	assert.NoError(t, err)
	h2, err := Secret("same-secret")
	assert.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	assert.True(t, Verify("same-secret", h1))
	assert.True(t, Verify("same-secret", h2))
}

func TestVerifyAgainstGarbageHash(t *testing.T) {
	assert.False(t, Verify("anything", "not-a-bcrypt-hash"))
}
