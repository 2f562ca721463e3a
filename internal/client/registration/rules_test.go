package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameValid(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", false},
		{"A", false},
		{"  A  ", false},
		{"Al", true},
		{" João ", true},
		{"Zé", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NameValid(tt.name), "%q", tt.name)
	}
}

func TestEmailFormatValid(t *testing.T) {
	valid := []string{"a@x.com", " a@x.com ", "first.last+tag@sub.example.org", "A@X.CO"}
	invalid := []string{"", "a", "a@x", "@x.com", "a@.com", "a@x.", "a b@x.com", "a@x .com"}

	for _, e := range valid {
		assert.True(t, EmailFormatValid(e), e)
	}
	for _, e := range invalid {
		assert.False(t, EmailFormatValid(e), e)
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		password string
		want     PasswordCriteria
	}{
		{"", PasswordCriteria{}},
		{"Passw0rd", PasswordCriteria{Length: true, Lower: true, Upper: true, Digit: true}},
		{"Passw0rd!", PasswordCriteria{Length: true, Lower: true, Upper: true, Digit: true, Symbol: true}},
		{"P0r!", PasswordCriteria{Lower: true, Upper: true, Digit: true, Symbol: true}},
		{"password", PasswordCriteria{Length: true, Lower: true}},
		{"PASSWORD1`", PasswordCriteria{Length: true, Upper: true, Digit: true, Symbol: true}},
		{"Pass word1", PasswordCriteria{Length: true, Lower: true, Upper: true, Digit: true}},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			got := CheckPassword(tt.password)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == PasswordCriteria{Length: true, Lower: true, Upper: true, Digit: true, Symbol: true}, got.Valid())
		})
	}
}

func TestCheckPassword_EverySymbolCounts(t *testing.T) {
	for _, r := range PasswordSymbols {
		assert.True(t, CheckPassword("Passw0rd"+string(r)).Valid(), string(r))
	}
}
