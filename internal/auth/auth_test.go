package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken("mentee-1", RoleMentee, testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken("mentee-1", RoleMentee, "")

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Fail with empty subject", func(t *testing.T) {
		_, err := GenerateAccessToken("", RoleMentee, testSecret)

		assert.Equal(t, ErrEmptySubject, err)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		token, err := GenerateAccessToken("provider-42", RoleProvider, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, "provider-42", claims.Subject)
		assert.Equal(t, RoleProvider, claims.Role)
		assert.Equal(t, "access", claims.TokenType)

		diff := claims.ExpiresAt.Time.Sub(time.Now().Add(AccessTokenTTL)).Abs()
		assert.Less(t, diff, 2*time.Second)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken("mentee-1", RoleMentee, testSecret)
		require.NoError(t, err)

		_, err = ValidateToken(token, "another-secret")
		assert.Error(t, err)
	})

	t.Run("Empty secret", func(t *testing.T) {
		_, err := ValidateToken("whatever", "")
		assert.Equal(t, ErrEmptyJWTSecret, err)
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", testSecret)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		claims := &JWTClaims{
			Role:      RoleMentee,
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "mentee-1",
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(past),
				IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.Equal(t, ErrTokenExpired, err)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		claims := &JWTClaims{
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "mentee-1",
				Issuer:    "someone-else",
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.Error(t, err)
	})
}
