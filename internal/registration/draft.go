package registration

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Form field names, shared by the rule set, the HTML form and the JSON API.
const (
	FieldMACAddress = "macAddress"
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldUsername   = "username"
	FieldPassword   = "password"
)

const minPasswordLength = 8

var (
	macPattern     = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Draft is the user supplied part of a registration. It only exists while the
// form is being filled in.
type Draft struct {
	MACAddress string `json:"macAddress" form:"macAddress"`
	FirstName  string `json:"firstName" form:"firstName"`
	LastName   string `json:"lastName" form:"lastName"`
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

// Validate applies the field rules and returns one message per failing field.
// An empty result means the draft may be submitted.
func (d Draft) Validate() FieldErrors {
	errs := FieldErrors{}

	switch {
	case strings.TrimSpace(d.MACAddress) == "":
		errs[FieldMACAddress] = "MAC address is required"
	case !macPattern.MatchString(d.MACAddress):
		errs[FieldMACAddress] = "Invalid MAC address format"
	}

	if strings.TrimSpace(d.FirstName) == "" {
		errs[FieldFirstName] = "First name is required"
	}
	if strings.TrimSpace(d.LastName) == "" {
		errs[FieldLastName] = "Last name is required"
	}
	if strings.TrimSpace(d.Username) == "" {
		errs[FieldUsername] = "Username is required"
	}

	if msg := passwordError(d.Password); msg != "" {
		errs[FieldPassword] = msg
	}

	return errs
}

func passwordError(pw string) string {
	switch {
	case pw == "":
		return "Password is required"
	case passwordLength(pw) < minPasswordLength:
		return "Password must be at least 8 characters"
	case !upperPattern.MatchString(pw):
		return "Password must contain at least one uppercase letter"
	case !lowerPattern.MatchString(pw):
		return "Password must contain at least one lowercase letter"
	case !digitPattern.MatchString(pw):
		return "Password must contain at least one number"
	case !specialPattern.MatchString(pw):
		return "Password must contain at least one special character"
	}
	return ""
}

// passwordLength counts UTF-16 code units, the length browsers enforce, so a
// character outside the basic plane counts twice.
func passwordLength(pw string) int {
	return len(utf16.Encode([]rune(pw)))
}

// Normalized trims surrounding whitespace from every field except the password.
func (d Draft) Normalized() Draft {
	return Draft{
		MACAddress: strings.TrimSpace(d.MACAddress),
		FirstName:  strings.TrimSpace(d.FirstName),
		LastName:   strings.TrimSpace(d.LastName),
		Username:   strings.TrimSpace(d.Username),
		Password:   d.Password,
	}
}

// Redacted returns a copy safe to log or to render back into the form.
func (d Draft) Redacted() Draft {
	out := d
	if out.Password != "" {
		out.Password = "***"
	}
	return out
}
