package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plus seven with formatting", "+7 (999) 123-45-67", "79991234567"},
		{"leading eight", "89991234567", "79991234567"},
		{"bare eleven digits", "79991234567", "79991234567"},
		{"ten digits", "9991234567", "79991234567"},
		{"too short", "12345", ""},
		{"too long", "799912345678", ""},
		{"letters only", "позвони мне", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePhone(tt.input))
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, isValidEmail("name@example.com"))
	assert.True(t, isValidEmail("first.last+tag@sub.domain.ru"))

	assert.False(t, isValidEmail("name@example"))
	assert.False(t, isValidEmail("@example.com"))
	assert.False(t, isValidEmail("name example.com"))
	assert.False(t, isValidEmail(""))
}
