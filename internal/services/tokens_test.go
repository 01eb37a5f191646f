package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokens(t *testing.T) {
	InitTokens("test-secret", 24)
	userID := primitive.NewObjectID()

	t.Run("Generate And Validate Roundtrip", func(t *testing.T) {
		token, err := GenerateToken(userID, "seller@example.com", "seller")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "seller@example.com", claims.Email)
		assert.Equal(t, "seller", claims.Role)
		assert.NotNil(t, claims.ExpiresAt)
	})

	t.Run("Garbage Token Rejected", func(t *testing.T) {
		_, err := ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		token, err := GenerateToken(userID, "buyer@example.com", "buyer")
		require.NoError(t, err)

		InitTokens("other-secret", 24)
		defer InitTokens("test-secret", 24)

		_, err = ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired Token Rejected", func(t *testing.T) {
		InitTokens("test-secret", -1)
		token, err := GenerateToken(userID, "buyer@example.com", "buyer")
		require.NoError(t, err)

		InitTokens("test-secret", 24)
		_, err = ValidateToken(token)
		assert.Error(t, err)
	})
}
