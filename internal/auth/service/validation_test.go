package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherror "github.com/Pelan2022/Koulio/internal/errors"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "user@example.com", "user@example.com", false},
		{"upper case normalized", "User@Example.COM", "user@example.com", false},
		{"surrounding whitespace trimmed", "  user@example.com ", "user@example.com", false},
		{"subdomain", "user@mail.example.com", "user@mail.example.com", false},
		{"plus tag", "user+tag@example.com", "user+tag@example.com", false},
		{"empty", "", "", true},
		{"missing domain", "user@", "", true},
		{"missing local part", "@example.com", "", true},
		{"no at sign", "user.example.com", "", true},
		{"spaces inside", "us er@example.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateEmail(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, autherror.ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Abc12345!", false},
		{"exactly eight chars", "Abc123!x", false},
		{"underscore counts as special", "Abc1234_", false},
		{"too short", "Ab1!xyz", true},
		{"no upper case", "abc12345!", true},
		{"no lower case", "ABC12345!", true},
		{"no digit", "Abcdefgh!", true},
		{"no special", "Abc123456", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, autherror.ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}
