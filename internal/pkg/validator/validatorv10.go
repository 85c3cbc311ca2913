package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/shandysiswandi/adminauth/internal/pkg/strcase"
)

var (
	reEmail    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	rePhone    = regexp.MustCompile(`^\d{10}$`)
	reDigits6  = regexp.MustCompile(`^\d{6}$`)
	reDigits   = regexp.MustCompile(`^\d+$`)
	reAdmin    = regexp.MustCompile(`^[a-zA-Z0-9]{3,50}$`)
	// 72 is bcrypt's input limit.
	rePassword = regexp.MustCompile(`^.{8,72}$`)
)

const passwordSpecials = "@$!%*?&"

// IsStrongPassword reports whether s is 8-72 characters long and mixes a
// lower case letter, an upper case letter, a digit and one of @$!%*?&.
func IsStrongPassword(s string) bool {
	if !rePassword.MatchString(s) {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

var ErrTranslatorNotFound = errors.New("translator not found")

// Validator validates a struct and returns a V10ValidationError on rule violations.
type Validator interface {
	Validate(data any) error
}

// IdentifierKind names which login identifier form a string matches.
type IdentifierKind string

const (
	IdentifierUnknown  IdentifierKind = ""
	IdentifierEmail    IdentifierKind = "email"
	IdentifierUsername IdentifierKind = "username"
	IdentifierPhone    IdentifierKind = "phone"
)

// ClassifyIdentifier reports whether s is an email, a username or a phone number.
// Ten digit strings are phones even though they also satisfy the username pattern.
func ClassifyIdentifier(s string) IdentifierKind {
	switch {
	case reEmail.MatchString(s):
		return IdentifierEmail
	case rePhone.MatchString(s):
		return IdentifierPhone
	case reUsername.MatchString(s):
		return IdentifierUsername
	default:
		return IdentifierUnknown
	}
}

// IsEmail reports whether s matches the loose email pattern used for OTP delivery.
func IsEmail(s string) bool {
	return reEmail.MatchString(s)
}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	enTrans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	errV10 := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}

	return errV10
}

type rule struct {
	tag     string
	message string
	check   func(s string) bool
}

func registerRules(validate *validator.Validate, trans ut.Translator) error {
	rules := []rule{
		{
			tag:     "password",
			message: "{0} must be 8-72 characters with upper and lower case letters, a number and one of @$!%*?&",
			check:   IsStrongPassword,
		},
		{tag: "digits6", message: "{0} must be exactly 6 digits", check: reDigits6.MatchString},
		{tag: "digits", message: "{0} must contain digits only", check: reDigits.MatchString},
		{tag: "phone10", message: "{0} must be exactly 10 digits", check: rePhone.MatchString},
		{tag: "adminname", message: "{0} must be 3-50 letters or numbers", check: reAdmin.MatchString},
		{
			tag:     "identifier",
			message: "{0} must be a valid email, username or 10 digit phone number",
			check:   func(s string) bool { return ClassifyIdentifier(s) != IdentifierUnknown },
		},
	}

	for _, r := range rules {
		check := r.check
		err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && check(s)
		})
		if err != nil {
			return err
		}

		message := r.message
		err = validate.RegisterTranslation(r.tag, trans,
			func(t ut.Translator) error { return t.Add(r.tag, message, false) },
			translate,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func translate(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		slog.Warn("failed to translate validation error", "tag", fe.Tag(), "field", fe.Field(), "error", err)
		return fe.Error()
	}
	return msg
}
