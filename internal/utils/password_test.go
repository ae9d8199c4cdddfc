package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, CheckPasswordHash("Sup3rSecret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	policy := DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		email    string
		wantErr  bool
	}{
		{"valid", "Gr33nLoop!", "user@example.com", false},
		{"too short", "Ab1", "user@example.com", true},
		{"no uppercase", "gr33nloop", "user@example.com", true},
		{"no lowercase", "GR33NLOOP", "user@example.com", true},
		{"no number", "GreenLoop", "user@example.com", true},
		{"repeated run", "Gaaa3loop", "user@example.com", true},
		{"contains email local part", "Maria1van0va", "mariaivanova@example.com", false},
		{"contains full local part", "Xmaria99Z", "maria@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidatePassword(tt.password, tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
