package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
		{"Unicode Characters", "ÅngstromPass12!", false},
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

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Subdomain", "student@mail.unilag.edu.ng", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Too Long", "a" + emailAt254, true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type signupInput struct {
	Name     string   `json:"name" validate:"notblank,max=120"`
	Email    string   `json:"email" validate:"required,email_addr"`
	Password string   `json:"password" validate:"required,password"`
	Role     string   `json:"role" validate:"required,oneof=buyer seller"`
	Images   []string `json:"images" validate:"min=1"`
}

func TestStruct(t *testing.T) {
	valid := signupInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "SecurePass12!@",
		Role:     "seller",
		Images:   []string{"x"},
	}
	require.NoError(t, Struct(valid))

	t.Run("blank name", func(t *testing.T) {
		in := valid
		in.Name = "   "
		err := Struct(in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("bad role", func(t *testing.T) {
		in := valid
		in.Role = "admin"
		err := Struct(in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "role must be one of [buyer seller]")
	})

	t.Run("weak password reports the rule", func(t *testing.T) {
		in := valid
		in.Password = "short"
		err := Struct(in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 12 characters")
	})

	t.Run("multiple failures joined", func(t *testing.T) {
		in := valid
		in.Email = "nope"
		in.Images = nil
		err := Struct(in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email format")
		assert.Contains(t, err.Error(), "images must have at least 1")
	})
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
