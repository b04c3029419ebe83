package session

import (
	"regexp"
	"strings"

	"github.com/induohouse/induoweb/internal/domain"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

const (
	msgEmailRequired     = "Email jest wymagany"
	msgEmailInvalid      = "Nieprawidłowy adres email"
	msgPasswordRequired  = "Hasło jest wymagane"
	msgPasswordTooShort  = "Min. 6 znaków"
	msgFirstNameRequired = "Imię jest wymagane"
	msgLastNameRequired  = "Nazwisko jest wymagane"
)

func ValidateLogin(c domain.LoginCredentials) FieldErrors {
	fe := FieldErrors{}
	validateEmail(fe, c.Email)
	validatePassword(fe, c.Password)
	return fe
}

func ValidateRegister(c domain.RegisterCredentials) FieldErrors {
	fe := FieldErrors{}
	validateEmail(fe, c.Email)
	validatePassword(fe, c.Password)
	if strings.TrimSpace(c.FirstName) == "" {
		fe["firstName"] = msgFirstNameRequired
	}
	if strings.TrimSpace(c.LastName) == "" {
		fe["lastName"] = msgLastNameRequired
	}
	return fe
}

func validateEmail(fe FieldErrors, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fe["email"] = msgEmailRequired
	case !emailPattern.MatchString(email):
		fe["email"] = msgEmailInvalid
	}
}

func validatePassword(fe FieldErrors, password string) {
	switch {
	case password == "":
		fe["password"] = msgPasswordRequired
	case len([]rune(password)) < MinPasswordLength:
		fe["password"] = msgPasswordTooShort
	}
}
