package util

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var charReplacementMap = map[string]string{
	"\u2018": "'", "\u2019": "'", "\u201C": "\"", "\u201D": "\"",
	"\u2013": "-", "\u2014": "--", "\u2026": "...", "\u00a0": " ",
	"\u0096": "-", "\u0097": "--", "\u0091": "'", "\u0092": "'",
	"\u0093": "\"", "\u0094": "\"",
	// Bullets become list dashes.
	"\u2022": "- ", "\u25aa": "- ", "\u00b7": "- ",
}

var (
	hyphenBreak  = regexp.MustCompile(`(\w)-\n(\w)`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
	trailingWS   = regexp.MustCompile(`[ \t]+\n`)
	carriageRets = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// IsLikelyBinary reports whether the leading bytes of data contain a NUL.
func IsLikelyBinary(data []byte) bool {
	if len(data) > maxBinaryCheckBytes {
		data = data[:maxBinaryCheckBytes]
	}
	return bytes.Contains(data, []byte{0})
}

// CleanText normalizes extracted document text: strips a BOM, repairs
// invalid UTF-8, maps typographic characters to ASCII, joins words split by
// a line-end hyphen and collapses runs of blank lines.
func CleanText(data []byte, src string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		log.Warnf("%s: invalid UTF-8, replacing invalid chars", src)
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}

	str := carriageRets.Replace(string(data))
	for bad, good := range charReplacementMap {
		str = strings.ReplaceAll(str, bad, good)
	}
	str = hyphenBreak.ReplaceAllString(str, "$1$2")
	str = trailingWS.ReplaceAllString(str, "\n")
	str = blankLines.ReplaceAllString(str, "\n\n")

	if !utf8.ValidString(str) {
		return "", fmt.Errorf("invalid UTF-8 after replacements: %s", src)
	}
	return strings.TrimSpace(str), nil
}
