package utils

import (
	"unicode"
)

// IsSeparator checks if a rune is a word separator inside a path segment
func IsSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.'
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsUUIDLike checks for a 36 char segment made of hex digits and dashes.
// It is the same loose shape check the path normalizer has always used,
// so dash positions are not verified.
func IsUUIDLike(s string) bool {
	if len(s) != 36 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// ContainsSpecialChars checks if a string contains characters that
// are not letters, digits, separators or slashes
func ContainsSpecialChars(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !IsSeparator(r) && r != '/' && r != '<' && r != '>' {
			return true
		}
	}
	return false
}

// IsValidInput checks if a partial path typed in the explorer should be processed
// Returns false for empty strings and strings with special characters
func IsValidInput(s string) bool {
	if len(s) == 0 {
		return false
	}
	return !ContainsSpecialChars(s)
}

// IsRepetitive checks if a string consists of one character repeated 3+ times
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	firstChar := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != firstChar {
			return false
		}
	}
	return true
}
