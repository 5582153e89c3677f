package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameWords(t *testing.T) {
	assert.Equal(t, []string{"jane", "doe"}, NameWords("jane_doe@corp.io"))
	assert.Equal(t, []string{"a", "b", "c"}, NameWords("a.b-c@corp.io"))
	assert.Empty(t, NameWords("@corp.io"))
	assert.Empty(t, NameWords(""))
}

func TestTitleName(t *testing.T) {
	tests := map[string][]string{
		"Jane Doe":   {"JANE", "doe"},
		"Émile Zola": {"émile", "ZOLA"},
		"Øystein Ås": {"øystein", "ås"},
		"X Y":        {"x", "y"},
		"":           nil,
	}
	for want, words := range tests {
		assert.Equal(t, want, TitleName(words), want)
	}
}
