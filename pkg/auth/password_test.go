package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Str0ngPassw0rd!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ngPassw0rd!", hash)

	assert.NoError(t, ComparePassword(hash, "Str0ngPassw0rd!"))
	assert.Error(t, ComparePassword(hash, "wrong-password"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ngPassw0rd!", false},
		{"too short", "Ab1!", true},
		{"common password", "password123", true},
		{"minimum length", "aB3defgh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateRememberToken_Unique(t *testing.T) {
	a, err := GenerateRememberToken()
	require.NoError(t, err)
	b, err := GenerateRememberToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
