package utils

import "unicode"

// CutAfterWords returns the byte offset just before the (n+1)-th word of s,
// so s[:cut] holds n whole words plus their trailing whitespace. Returns -1
// when s holds n or fewer words. The slice boundaries preserve the original
// bytes, newlines included.
func CutAfterWords(s string, n int) int {
	if n <= 0 {
		n = 1
	}

	words := 0
	inWord := false
	for i, r := range s {
		if unicode.IsSpace(r) {
			if inWord {
				words++
				inWord = false
			}
			continue
		}
		if !inWord {
			if words == n {
				return i
			}
			inWord = true
		}
	}
	return -1
}
