/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NamingFunc derives a physical field name from a logical property name.
// It runs while a mapping is built, never per call.
type NamingFunc func(logical string) string

// LowerFirst lower-cases the first letter and keeps the rest: "CreatedAt" -> "createdAt".
func LowerFirst(logical string) string {
	r, n := utf8.DecodeRuneInString(logical)
	if r == utf8.RuneError {
		return logical
	}
	return string(unicode.ToLower(r)) + logical[n:]
}

// Identity keeps the logical name.
func Identity(logical string) string {
	return logical
}

// SnakeCase splits CamelCase words and joins them with underscores: "OrderID" -> "order_id".
func SnakeCase(logical string) string {
	return strings.ToLower(strings.Join(splitWords(logical), "_"))
}

// splitWords tokenizes an identifier on case changes. Acronyms stay together:
// "XMLParser" -> ["XML", "Parser"].
func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev) ||
			(i+1 < len(runes) && unicode.IsUpper(prev) && unicode.IsLower(runes[i+1])))
		if cur == '_' || cur == '-' {
			if i > start {
				words = append(words, string(runes[start:i]))
			}
			start = i + 1
			continue
		}
		if boundary && i > start {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
