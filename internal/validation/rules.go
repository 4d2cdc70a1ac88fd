package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Messages shown next to invalid fields.
const (
	MsgRequired       = "This field is required"
	MsgEmail          = "Please enter a valid email address"
	MsgPasswordLength = "Password must be at least 8 characters long"
	MsgPasswordUpper  = "Password must contain at least one uppercase letter"
	MsgPasswordLower  = "Password must contain at least one lowercase letter"
	MsgPasswordDigit  = "Password must contain at least one number"
	MsgPasswordSymbol = "Password must contain at least one special character"
	MsgNameTooShort   = "Name must be at least 2 characters long"
	MsgNameTooLong    = "Name must be no more than 50 characters long"
	MsgNameCharset    = "Name can only contain letters and spaces"
	MsgPasswordMatch  = "Passwords do not match"
	MsgRating         = "Rating must be a number between 1 and 5"
)

const (
	passwordMinLength = 8
	passwordSymbolSet = `!@#$%^&*(),.?":{}|<>`
	nameMinLength     = 2
	nameMaxLength     = 50
	ratingMin         = 1
	ratingMax         = 5
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}]+$`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
)

// Outcome is the verdict of one rule. Message is empty when Valid.
type Outcome struct {
	Valid   bool
	Message string
}

// isSpace matches the white space a browser trims: ASCII white space,
// Unicode space separators, line and paragraph separators and the BOM.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

func pass() Outcome { return Outcome{Valid: true} }

func fail(msg string) Outcome { return Outcome{Message: msg} }

// Required passes when the value is non-empty after trimming whitespace.
func Required(value string) Outcome {
	if trim(value) == "" {
		return fail(MsgRequired)
	}
	return pass()
}

// Email passes when the trimmed value looks like local@domain.tld.
func Email(value string) Outcome {
	if !emailRe.MatchString(trim(value)) {
		return fail(MsgEmail)
	}
	return pass()
}

// Password checks the raw value against every strength rule and reports all
// violations at once, in a fixed order.
func Password(value string) Outcome {
	var errs []string
	if utf8.RuneCountInString(value) < passwordMinLength {
		errs = append(errs, MsgPasswordLength)
	}
	if !upperRe.MatchString(value) {
		errs = append(errs, MsgPasswordUpper)
	}
	if !lowerRe.MatchString(value) {
		errs = append(errs, MsgPasswordLower)
	}
	if !digitRe.MatchString(value) {
		errs = append(errs, MsgPasswordDigit)
	}
	if !strings.ContainsAny(value, passwordSymbolSet) {
		errs = append(errs, MsgPasswordSymbol)
	}
	if len(errs) > 0 {
		return fail(strings.Join(errs, ", "))
	}
	return pass()
}

// Name checks length before character set and stops at the first failure.
func Name(value string) Outcome {
	v := trim(value)
	n := utf8.RuneCountInString(v)
	switch {
	case n < nameMinLength:
		return fail(MsgNameTooShort)
	case n > nameMaxLength:
		return fail(MsgNameTooLong)
	case !nameRe.MatchString(v):
		return fail(MsgNameCharset)
	}
	return pass()
}

// Text checks the trimmed length against minLen and maxLen. Non-positive
// bounds fall back to DefaultTextMin and DefaultTextMax.
func Text(value string, minLen, maxLen int) Outcome {
	if minLen <= 0 {
		minLen = DefaultTextMin
	}
	if maxLen <= 0 {
		maxLen = DefaultTextMax
	}
	n := utf8.RuneCountInString(trim(value))
	switch {
	case n < minLen:
		return fail(fmt.Sprintf("Text must be at least %d characters long", minLen))
	case n > maxLen:
		return fail(fmt.Sprintf("Text must be no more than %d characters long", maxLen))
	}
	return pass()
}

// ConfirmPassword passes only when confirm is byte-for-byte equal to password.
// No trimming is applied to either side.
func ConfirmPassword(password, confirm string) Outcome {
	if password != confirm {
		return fail(MsgPasswordMatch)
	}
	return pass()
}

// Rating passes when the value starts with an integer in [1,5].
func Rating(value string) Outcome {
	n, ok := leadingInt(value)
	if !ok || n < ratingMin || n > ratingMax {
		return fail(MsgRating)
	}
	return pass()
}

// leadingInt reads an optionally signed run of decimal digits after leading
// whitespace and ignores whatever follows, so "4 stars" reads as 4.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, isSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		// Anything this long is out of range already; stop before overflow.
		if n < 1_000_000 {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
