package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

func newError(field, message, key string, values map[string]any) ValidationError {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return ValidationError{
		Field:             field,
		Message:           message,
		TranslationKey:    key,
		TranslationValues: values,
	}
}

// RequiredString fails when value is empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: newError(field, "field is required", "validation.required", nil),
	}
}

// MaxLenString fails when value holds more than max characters.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: newError(field, fmt.Sprintf("must be at most %d characters long", max),
			"validation.max_length", map[string]any{"max": max}),
	}
}

// ValidEmail checks an address of the form local@domain.tld.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(strings.TrimSpace(value))
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return strings.Contains(domain, ".")
		},
		Error: newError(field, "must be a valid email address", "validation.email", nil),
	}
}

// ValidDomainName checks a fully-qualified host name with at least two labels.
func ValidDomainName(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" || len(value) > 253 {
				return false
			}
			labels := strings.Split(value, ".")
			if len(labels) < 2 {
				return false
			}
			for i, label := range labels {
				if !validLabel(label) {
					return false
				}
				if i == len(labels)-1 && !alphaOnly(label) {
					return false
				}
			}
			return true
		},
		Error: newError(field, "must be a valid domain name", "validation.domain_name", nil),
	}
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func alphaOnly(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// MinNum fails when value is below min.
func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: newError(field, fmt.Sprintf("must be at least %v", min), "validation.min", map[string]any{"min": min}),
	}
}

// MaxNum fails when value is above max.
func MaxNum[T Numeric](field string, value, max T) Rule {
	return Rule{
		Check: func() bool { return value <= max },
		Error: newError(field, fmt.Sprintf("must be at most %v", max), "validation.max", map[string]any{"max": max}),
	}
}

// Check adapts an arbitrary validation func into a Rule that fails with
// message whenever fn returns an error.
func Check(field string, fn func() error, message string) Rule {
	return Rule{
		Check: func() bool { return fn() == nil },
		Error: newError(field, message, "validation.invalid", nil),
	}
}
