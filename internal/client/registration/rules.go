// Package registration implements the sign-up form: field rules, the debounced
// email-uniqueness check and the Register action.
package registration

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 8

// PasswordSymbols is the punctuation set that satisfies the symbol criterion.
const PasswordSymbols = "!@#$%^&*()-_=+[]{}|\\;:'\",.<>/?`~"

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NameValid reports whether the trimmed name has more than one character.
func NameValid(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) > 1
}

// EmailFormatValid is a pragmatic local@domain.tld check, not RFC 5322.
func EmailFormatValid(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// PasswordCriteria lists each password rule separately so a UI can render a
// checklist.
type PasswordCriteria struct {
	Length bool
	Lower  bool
	Upper  bool
	Digit  bool
	Symbol bool
}

// Valid reports whether every criterion holds.
func (c PasswordCriteria) Valid() bool {
	return c.Length && c.Lower && c.Upper && c.Digit && c.Symbol
}

// CheckPassword evaluates password against every criterion.
func CheckPassword(password string) PasswordCriteria {
	c := PasswordCriteria{Length: utf8.RuneCountInString(password) >= MinPasswordLength}
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			c.Lower = true
		case unicode.IsUpper(r):
			c.Upper = true
		case unicode.IsDigit(r):
			c.Digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			c.Symbol = true
		}
	}
	return c
}
