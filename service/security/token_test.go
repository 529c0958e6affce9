package security

import (
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/skillswap/skillswap/util"
	"github.com/stretchr/testify/require"
)

var service *JWTService

func TestMain(m *testing.M) {
	config := &util.Config{
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Minute,
		RefreshTokenExpiration: time.Hour,
	}
	service = NewJWTService(config)
	os.Exit(m.Run())
}

func TestToken(t *testing.T) {
	// Create test data
	id := uint(rand.Intn(1000))
	tokenType := []TokenType{AccessToken, RefreshToken}[rand.Intn(2)]
	version := rand.Intn(10)

	// Create token
	token, err := service.CreateToken(id, tokenType, version)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Verify token
	result, err := service.VerifyToken(token)
	require.NoError(t, err)
	require.NotEmpty(t, result)

	// Compare the test data with the extract claims
	require.Equal(t, id, result.ID)
	require.Equal(t, tokenType, result.TokenType)
	require.Equal(t, version, result.Version)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	other := NewJWTService(&util.Config{
		SecretKey:       []byte("some-other-secret"),
		TokenExpiration: time.Minute,
	})

	token, err := other.CreateToken(1, AccessToken, 1)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	hashed, err := BcryptHash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)

	require.True(t, BcryptCompare(hashed, "correct horse battery staple"))
	require.False(t, BcryptCompare(hashed, "wrong password"))
}
