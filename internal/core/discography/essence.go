package discography

import "strings"

// EssenceKey returns the grouping key for an album title: the title without
// its trailing parenthetical or bracketed qualifier, trimmed and lower-cased.
//
// Only the last bracket group is removed, so "Album (Live) [Remastered]"
// groups as "album (live)". A title with unbalanced or crossed brackets keeps
// its full text and ambiguous is true. A title that is nothing but one
// bracket group is kept whole.
func EssenceKey(title string) (key string, ambiguous bool) {
	t := strings.TrimSpace(title)
	if !balancedBrackets(t) {
		return strings.ToLower(t), true
	}
	if open := trailingGroupStart(t); open > 0 {
		if prefix := strings.TrimSpace(t[:open]); prefix != "" {
			return strings.ToLower(prefix), false
		}
	}
	return strings.ToLower(t), false
}

func balancedBrackets(s string) bool {
	var stack []byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[':
			stack = append(stack, c)
		case ')', ']':
			if len(stack) == 0 {
				return false
			}
			top := stack[len(stack)-1]
			if (c == ')' && top != '(') || (c == ']' && top != '[') {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

// trailingGroupStart returns the index of the opener matching the closing
// bracket that ends s, or -1. s must be balanced.
func trailingGroupStart(s string) int {
	if s == "" {
		return -1
	}
	last := s[len(s)-1]
	if last != ')' && last != ']' {
		return -1
	}
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')', ']':
			depth++
		case '(', '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
