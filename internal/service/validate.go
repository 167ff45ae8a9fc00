package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/content_auth/internal/hash"
)

const (
	minPasswordBytes = 8
	minFullName      = 5
	maxFullName      = 1000
	maxEmail         = 254
)

var fullNameRe = regexp.MustCompile(`^\p{L}+(?:[ '\-]\p{L}+)*$`)

// NormalizeEmail trims and lower-cases email and checks it is a bare
// address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmail {
		return "", fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	return email, nil
}

func ValidateFullName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minFullName || n > maxFullName || !fullNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: full_name must be %d to %d letters", ErrValidation, minFullName, maxFullName)
	}
	return name, nil
}

func ValidatePassword(pw string) error {
	if len(pw) < minPasswordBytes || len(pw) > hash.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be %d to %d bytes", ErrValidation, minPasswordBytes, hash.MaxPasswordBytes)
	}
	return nil
}
