package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "camiseta-basica", Slugify("Camiseta Básica"))
	assert.Equal(t, "calca-jeans-skinny", Slugify("Calça Jeans  Skinny"))
	assert.Equal(t, "vestido-floral", Slugify("--Vestido Floral!--"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3nh4-forte")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	ok, err := VerifyPassword("s3nh4-forte", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("errada", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "pas-un-hash")
	assert.Error(t, err)
}
