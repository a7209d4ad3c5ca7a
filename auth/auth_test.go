package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("0601020304", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("0601020304", claims.Phone)
	req.Equal("chat-relay", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("0601020304", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestHashAndComparePassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Str0ngPass!")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	match, err := ComparePassword("Str0ngPass!", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPass1!", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	require.Error(t, err)
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
	}{
		{
			name:    "valid phone and complex password",
			request: RegisterRequest{Phone: "0601020304", Password: "Str0ngPass!"},
		},
		{
			name:    "phone with letters",
			request: RegisterRequest{Phone: "06abc", Password: "Str0ngPass!"},
			wantErr: true,
		},
		{
			name:    "phone too short",
			request: RegisterRequest{Phone: "06", Password: "Str0ngPass!"},
			wantErr: true,
		},
		{
			name:    "password too simple",
			request: RegisterRequest{Phone: "0601020304", Password: "alllowercase1"},
			wantErr: true,
		},
		{
			name:    "password too short",
			request: RegisterRequest{Phone: "0601020304", Password: "S1!a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.request)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRegister_ComplexityError(t *testing.T) {
	err := ValidateRegister(RegisterRequest{Phone: "0601020304", Password: "alllowercase"})
	require.ErrorIs(t, err, errors.ErrInvalidPassword)
}
