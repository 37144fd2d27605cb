package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	tok, err := jwt.Generate("secreto", "festival-pos", 60, jwt.Claims{
		UserID: "user01", ClassID: "3-A", Role: "admin", MustChangePassword: true,
	})
	require.NoError(t, err)

	claims, err := jwt.Parse("secreto", tok)
	require.NoError(t, err)
	assert.Equal(t, "user01", claims.UserID)
	assert.Equal(t, "3-A", claims.ClassID)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.MustChangePassword)
	assert.Equal(t, "festival-pos", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := jwt.Generate("secreto", "festival-pos", 60, jwt.Claims{UserID: "user01"})
	require.NoError(t, err)

	_, err = jwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := jwt.Generate("secreto", "festival-pos", -1, jwt.Claims{UserID: "user01"})
	require.NoError(t, err)

	_, err = jwt.Parse("secreto", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "x", 1, jwt.Claims{})
	assert.Error(t, err)
}
