package crypto_test

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moe10k/word-game/internal/crypto"
	"github.com/moe10k/word-game/internal/domain"
)

const testKey = "supersupersecretkey don't share it with anyone"

func TestJWTManager_Generate(t *testing.T) {
	t.Parallel()
	manager := crypto.NewJWTManager(testKey, time.Hour)
	now := time.Now()

	token, err := manager.Generate("123-456-789", now)
	require.NoError(t, err)

	tokenParts := strings.Split(token, ".")
	require.Len(t, tokenParts, 3)
	jwtHead, _ := base64.RawURLEncoding.DecodeString(tokenParts[0])
	jwtBody, _ := base64.RawURLEncoding.DecodeString(tokenParts[1])
	jwtSignature, _ := base64.RawURLEncoding.DecodeString(tokenParts[2])

	assert.JSONEq(t, `{"alg": "HS256","typ": "JWT"}`, string(jwtHead))
	assert.JSONEq(t, fmt.Sprintf(`{"id": "123-456-789","exp": %d }`, now.Add(time.Hour).Unix()), string(jwtBody))
	assert.Len(t, jwtSignature, 256/8, "256 bits of sha256")
}

func TestJWTManager_Verify(t *testing.T) {
	t.Parallel()
	manager := crypto.NewJWTManager(testKey, 2*time.Hour)

	now := time.Now()
	oneHourAgo := now.Add(-time.Hour)
	threeHoursAgo := now.Add(-3 * time.Hour)

	token, err := manager.Generate("idid", threeHoursAgo)
	require.NoError(t, err)
	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)

	token, err = manager.Generate("idid", oneHourAgo)
	require.NoError(t, err)
	id, err := manager.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "idid", id)

	_, err = manager.Verify(token + "lol")
	assert.ErrorIs(t, err, domain.ErrInvalidTokenSignature)

	parts := strings.Split(token, ".")
	tokenNonHS256Alg := "eyJhbGciOiJFUzUxMiIsInR5cCI6IkpXVCJ9" + "." + parts[1] + "." + parts[2]
	_, err = manager.Verify(tokenNonHS256Alg)
	assert.ErrorIs(t, err, domain.ErrInvalidSigningAlg)

	tokenNoneAlg := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0" + "." + parts[1] + "."
	_, err = manager.Verify(tokenNoneAlg)
	assert.ErrorIs(t, err, domain.ErrInvalidSigningAlg)

	_, err = manager.Verify("stemretmretm")
	assert.ErrorIs(t, err, domain.ErrCorruptedToken)
}

func TestJWTManager_WrongKeyRejected(t *testing.T) {
	t.Parallel()
	manager := crypto.NewJWTManager(testKey, time.Hour)
	other := crypto.NewJWTManager("a completely different key", time.Hour)

	token, err := manager.Generate("idid", time.Now())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenSignature)
}
