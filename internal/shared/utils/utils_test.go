package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Premium Coffee Beans!", "premium-coffee-beans"},
		{"  Spaced   Out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcode & Symbols #1", "ncode-symbols-1"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateSlug(tt.input), "input %q", tt.input)
	}
}

func TestParseStringToUUID(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, id, ParseStringToUUID(id.String()))
	assert.Equal(t, uuid.Nil, ParseStringToUUID("not-a-uuid"))
	assert.Equal(t, uuid.Nil, ParseStringToUUID(""))
}

func TestParseFloatToDecimal(t *testing.T) {
	assert.Nil(t, ParseFloatToDecimal(nil))

	v := 19.99
	d := ParseFloatToDecimal(&v)
	assert.Equal(t, "19.99", d.String())
}
