package model

import (
	"strings"
	"unicode"
)

// Identity is an authenticated person as reported by the identity provider.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Matches reports whether email belongs to this identity.
func (i Identity) Matches(email string) bool {
	return SameEmail(i.Email, email)
}

// SameEmail compares two addresses case-insensitively. Blank never matches.
func SameEmail(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// DisplayName title-cases a name, falling back to "Anonymous".
func DisplayName(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "Anonymous"
	}
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
