// Package assemble builds the context string handed to the answering client.
package assemble

import "strings"

// Join concatenates fragments in order with a single space. Nothing is dropped or cut.
func Join(fragments []string) string {
	return strings.Join(fragments, " ")
}

// Preview returns the first limit characters of text, counted in runes.
func Preview(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
