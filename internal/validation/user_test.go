package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Exactly Min Length", "Abcdefghij1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Too Short", "Small1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Digits And Special Only", "1234567890!@", true},
		{"Unicode Characters", "ÅngstromPass12!", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName("Ada Lovelace"))
	assert.Error(t, ValidateName("   "))
	assert.NoError(t, ValidateName(strings.Repeat("é", NameMaxLength)))
	assert.Error(t, ValidateName(strings.Repeat("x", NameMaxLength+1)))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"ada@example.com", false},
		{"first.last+tag@sub.example.org", false},
		{"no-at-sign.example.com", true},
		{"ada@localhost", true},
		{strings.Repeat("a", 250) + "@example.com", true},
	}
	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if tt.wantErr {
			assert.Error(t, err, tt.email)
		} else {
			assert.NoError(t, err, tt.email)
		}
	}
}

func TestValidateMaxLength(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateMaxLength("headline", "short", 10))
	assert.EqualError(t, ValidateMaxLength("headline", "far too long", 5), "headline must not exceed 5 characters")
}

func TestValidateWebsiteURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateWebsiteURL("https://ada.dev/blog"))
	assert.NoError(t, ValidateWebsiteURL("http://example.com"))
	assert.Error(t, ValidateWebsiteURL("ftp://example.com"))
	assert.Error(t, ValidateWebsiteURL("example.com"))
	assert.Error(t, ValidateWebsiteURL("https://"))
}
