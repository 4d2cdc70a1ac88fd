package validation

import (
	"fmt"
	"strings"
)

// Kind selects the rule a field is validated with. It is decided once, when a
// form is built from markup, and never re-derived from the type or name.
type Kind int

const (
	// KindRequired only checks that the trimmed value is non-empty. It is the
	// default for any input the other kinds do not claim.
	KindRequired Kind = iota
	KindEmail
	KindPassword
	KindConfirmPassword
	KindName
	KindText
	KindRating
)

var kindNames = map[Kind]string{
	KindRequired:        "required",
	KindEmail:           "email",
	KindPassword:        "password",
	KindConfirmPassword: "confirm-password",
	KindName:            "name",
	KindText:            "text",
	KindRating:          "rating",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a declared kind name (as used in data-kind attributes) to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindRequired, fmt.Errorf("unknown field kind %q", s)
}

// confirmNames are the input names treated as a password confirmation.
var confirmNames = map[string]bool{
	"confirm_password":      true,
	"password_confirmation": true,
	"confirm-password":      true,
}

// ResolveKind derives a field's kind from its declared input type, using the
// name to disambiguate types shared by several kinds (a text input named
// "name" is a name field, not generic text). Unrecognised combinations
// resolve to KindRequired.
func ResolveKind(inputType, name string) Kind {
	inputType = strings.ToLower(inputType)
	if name == "rating" {
		return KindRating
	}
	switch inputType {
	case "email":
		return KindEmail
	case "password":
		if confirmNames[name] {
			return KindConfirmPassword
		}
		return KindPassword
	case "text":
		if name == "name" {
			return KindName
		}
		return KindText
	case "textarea":
		return KindText
	default:
		return KindRequired
	}
}
