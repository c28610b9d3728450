// Package assemble builds the final TXT or EPUB artifact from a
// normalized, fully-downloaded chapter list.
package assemble

import "strings"

// invalidFilenameChars are the characters Filename replaces with "_" —
// the Windows-reserved path characters.
const invalidFilenameChars = `\/:*?"<>|`

// Sanitize replaces every character in invalidFilenameChars with "_",
// defaulting to "_" if the result would otherwise be empty.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return '_'
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return s
}

// Filename builds the output artifact's filename:
// "{sanitize(title)}_{sanitize(author)}.{ext}".
func Filename(title, author, ext string) string {
	return Sanitize(title) + "_" + Sanitize(author) + "." + ext
}
