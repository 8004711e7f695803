package alphabet

import "sort"

const (
	Upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lower   = "abcdefghijklmnopqrstuvwxyz"
	Letters = Lower + Upper

	Digits       = "0123456789"
	AlphaNumeric = Letters + Digits

	Base64    = AlphaNumeric + "+/"
	Base64URL = AlphaNumeric + "-_"

	Braces        = "<{[()]}>"
	Slashes       = `\/`
	Separators    = ",.:;?!"
	Quotes        = `'"`
	Miscellaneous = "@#%$|^~_+-*="
	Special       = Braces + Slashes + Separators + Quotes + Miscellaneous
)

var named = map[string]string{
	"upper":        Upper,
	"lower":        Lower,
	"letters":      Letters,
	"digits":       Digits,
	"alphanumeric": AlphaNumeric,
	"base64":       Base64,
	"base64url":    Base64URL,
	"special":      Special,
}

// Lookup returns the symbols of a predefined charset by name.
func Lookup(name string) (string, bool) {
	s, ok := named[name]
	return s, ok
}

// Names lists the charsets known to Lookup, sorted.
func Names() []string {
	out := make([]string, 0, len(named))
	for n := range named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
