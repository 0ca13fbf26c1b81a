package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_StudentTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GenerateStudentToken(42, 7, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateStudentToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, 7, claims.ClassID)
	assert.Equal(t, TokenTypeStudent, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
}

func TestAuthService_ExpiredToken(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GenerateStudentToken(1, 1, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthService_WrongSecret(t *testing.T) {
	token, err := NewAuthService("one").GenerateStudentToken(1, 1, time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService("two").ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_RejectsAdminToken(t *testing.T) {
	svc := NewAuthService("test-secret")

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: TokenTypeAdmin,
		UserID:    3,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateStudentToken(token)
	assert.ErrorIs(t, err, ErrNotAStudent)
}

func TestAuthService_Garbage(t *testing.T) {
	_, err := NewAuthService("s").ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_AdminToken(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GenerateAdminToken(9, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, 9, claims.UserID)

	_, err = svc.ValidateStudentToken(token)
	assert.ErrorIs(t, err, ErrNotAStudent)

	student, err := svc.GenerateStudentToken(1, 1, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateAdminToken(student)
	assert.ErrorIs(t, err, ErrNotAnAdmin)
}
