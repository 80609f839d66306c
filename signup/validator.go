package signup

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// MaxPasswordBytes is the longest password bcrypt will accept.
const MaxPasswordBytes = 72

// Input is the raw signup form. Absent fields are empty strings.
type Input struct {
	Name     string
	Email    string
	Password string
}

// FieldErrors maps a form field to the messages of every rule it failed.
type FieldErrors map[string][]string

// Validated is a signup input that passed every rule. Only Validate can build one.
type Validated struct {
	name     string
	email    string
	password string
}

func (v Validated) Name() string     { return v.name }
func (v Validated) Email() string    { return v.email }
func (v Validated) Password() string { return v.password }

// Policy holds the tunable length rules.
type Policy struct {
	NameMinLength     int
	PasswordMinLength int
}

// DefaultPolicy mirrors the signup form defaults.
func DefaultPolicy() Policy {
	return Policy{NameMinLength: 2, PasswordMinLength: 8}
}

type rule struct {
	tag     string
	message string
}

// Validator checks signup input field by field.
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	fields    []fieldRules
}

type fieldRules struct {
	field string
	rules []rule
}

// NewValidator builds a validator for the given policy.
func NewValidator(p Policy) (*Validator, error) {
	if p.NameMinLength < 1 {
		p.NameMinLength = 1
	}
	if p.PasswordMinLength < 1 {
		p.PasswordMinLength = 1
	}

	v := validator.New()
	custom := map[string]validator.Func{
		"hasletter":  containsRune(isLetter),
		"hasdigit":   containsRune(isDigit),
		"hasspecial": containsRune(isSpecial),
		"bcryptlen": func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxPasswordBytes
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s rule: %w", tag, err)
		}
	}

	return &Validator{
		validate:  v,
		sanitizer: bluemonday.StrictPolicy(),
		fields: []fieldRules{
			{field: "name", rules: []rule{
				{"required", "Name is required."},
				{fmt.Sprintf("min=%d", p.NameMinLength), fmt.Sprintf("Name must be at least %d characters long.", p.NameMinLength)},
			}},
			{field: "email", rules: []rule{
				{"required", "Email is required."},
				{"email", "Please enter a valid email."},
			}},
			{field: "password", rules: []rule{
				{"required", "Password is required."},
				{fmt.Sprintf("min=%d", p.PasswordMinLength), fmt.Sprintf("Be at least %d characters long", p.PasswordMinLength)},
				{"hasletter", "Contain at least one letter."},
				{"hasdigit", "Contain at least one number."},
				{"hasspecial", "Contain at least one special character."},
				{"bcryptlen", fmt.Sprintf("Be at most %d bytes long.", MaxPasswordBytes)},
			}},
		},
	}, nil
}

// Validate normalizes the input and runs every rule. It returns either a
// Validated value or a non-empty FieldErrors, never both.
func (v *Validator) Validate(in Input) (Validated, FieldErrors) {
	values := map[string]string{
		"name":     v.cleanName(in.Name),
		"email":    strings.ToLower(strings.TrimSpace(in.Email)),
		"password": strings.TrimSpace(in.Password),
	}

	fieldErrs := FieldErrors{}
	for _, f := range v.fields {
		value := values[f.field]
		for _, r := range f.rules {
			if err := v.validate.Var(value, r.tag); err != nil {
				fieldErrs[f.field] = append(fieldErrs[f.field], r.message)
				// nothing else is worth reporting for an empty field
				if r.tag == "required" {
					break
				}
			}
		}
	}

	if len(fieldErrs) > 0 {
		return Validated{}, fieldErrs
	}
	return Validated{
		name:     values["name"],
		email:    values["email"],
		password: values["password"],
	}, nil
}

// cleanName strips markup and surrounding space, keeping the plain text.
func (v *Validator) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(v.sanitizer.Sanitize(name)))
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// Character classes are ASCII only, so "ä" counts as a special character.
func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isSpecial(r rune) bool {
	return !isLetter(r) && !isDigit(r)
}
