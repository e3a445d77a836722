package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator checks one field value and returns a message, or "" when the
// value is acceptable.
type Validator func(value string) string

type (
	Values map[string]string
	Errors map[string]string
)

// Schema validates a whole form, returning one message per failing field.
type Schema func(Values) Errors

// Rules lists the validators for each field, run in order.
type Rules map[string][]Validator

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

func Required(field string) Validator {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return field + " is required"
		}
		return ""
	}
}

func Email() Validator {
	return func(value string) string {
		if value == "" {
			return ""
		}
		if !emailPattern.MatchString(value) {
			return "Please enter a valid email address"
		}
		return ""
	}
}

func MinLength(n int, field string) Validator {
	return func(value string) string {
		if value == "" {
			return ""
		}
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("%s must be at least %d characters long", field, n)
		}
		return ""
	}
}

func MaxLength(n int, field string) Validator {
	return func(value string) string {
		if value == "" {
			return ""
		}
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("%s must be less than %d characters", field, n)
		}
		return ""
	}
}

func StrongPassword() Validator {
	return func(value string) string {
		if value == "" {
			return ""
		}

		var unmet []string
		if utf8.RuneCountInString(value) < 8 {
			unmet = append(unmet, "at least 8 characters")
		}
		if !strings.ContainsFunc(value, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
			unmet = append(unmet, "one lowercase letter")
		}
		if !strings.ContainsFunc(value, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
			unmet = append(unmet, "one uppercase letter")
		}
		if !strings.ContainsFunc(value, func(r rune) bool { return r >= '0' && r <= '9' }) {
			unmet = append(unmet, "one number")
		}
		if !specialPattern.MatchString(value) {
			unmet = append(unmet, "one special character")
		}

		if len(unmet) > 0 {
			return "Password must include: " + strings.Join(unmet, ", ")
		}
		return ""
	}
}

func PasswordMatch(password, confirm string) string {
	if confirm == "" {
		return ""
	}
	if password != confirm {
		return "Passwords do not match"
	}
	return ""
}

// NewSchema builds a Schema that reports the first failing validator of
// each field.
func NewSchema(rules Rules) Schema {
	return func(values Values) Errors {
		errs := Errors{}
		for field, validators := range rules {
			for _, v := range validators {
				if msg := v(values[field]); msg != "" {
					errs[field] = msg
					break
				}
			}
		}
		return errs
	}
}

var (
	LoginSchema = NewSchema(Rules{
		"email":    {Required("Email"), Email()},
		"password": {Required("Password"), MinLength(6, "Password")},
	})

	RegisterSchema = NewSchema(Rules{
		"name":            {Required("Name"), MinLength(2, "Name")},
		"email":           {Required("Email"), Email()},
		"password":        {Required("Password"), StrongPassword()},
		"confirmPassword": {Required("Password confirmation")},
	})

	PostSchema = NewSchema(Rules{
		"title":   {Required("Title"), MinLength(5, "Title"), MaxLength(200, "Title")},
		"content": {Required("Content"), MinLength(20, "Content")},
	})

	CommentSchema = NewSchema(Rules{
		"content": {Required("Comment"), MinLength(3, "Comment"), MaxLength(1000, "Comment")},
	})
)
