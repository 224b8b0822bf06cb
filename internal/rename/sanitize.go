package rename

import "strings"

// invalidNameChars are the characters rejected in file names by common file systems.
const invalidNameChars = `\/*?:"<>|`

// Sanitize removes every character that is invalid in a file name.
// Characters are deleted, not replaced; everything else is kept in order.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidNameChars, r) {
			return -1
		}
		return r
	}, name)
}
