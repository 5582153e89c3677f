package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bom and quotes", "\xEF\xBB\xBF\u201CHello\u201D", `"Hello"`},
		{"hyphenated line break", "experi-\nence in Go", "experience in Go"},
		{"bullets", "\u2022Go\n\u2022SQL", "- Go\n- SQL"},
		{"blank lines collapsed", "Jane\n\n\n\n\nEngineer", "Jane\n\nEngineer"},
		{"crlf", "a\r\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanText([]byte(tt.in), "test")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanText_InvalidUTF8(t *testing.T) {
	got, err := CleanText([]byte("ok \xff done"), "test")
	require.NoError(t, err)
	assert.Equal(t, "ok \uFFFD done", got)
}

func TestIsLikelyBinary(t *testing.T) {
	assert.True(t, IsLikelyBinary([]byte{'a', 0, 'b'}))
	assert.False(t, IsLikelyBinary([]byte("plain resume text")))
}
