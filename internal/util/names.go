package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameWords splits the local part of an email address into name words:
// "jane_doe@x" gives [jane doe]. Dots, underscores, hyphens and spaces
// separate words.
func NameWords(email string) []string {
	local, _, _ := strings.Cut(email, "@")
	return strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})
}

// TitleName joins words into a display name, upper-casing the first rune of
// each word and lower-casing the rest.
func TitleName(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		out = append(out, string(unicode.ToUpper(r))+strings.ToLower(w[size:]))
	}
	return strings.Join(out, " ")
}
