package signup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(DefaultPolicy())
	require.NoError(t, err)
	return v
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	v := newTestValidator(t)

	got, fieldErrs := v.Validate(Input{Name: "  Ann  ", Email: " Ann@Example.com ", Password: "Str0ngP@ss!"})
	require.Nil(t, fieldErrs)
	require.Equal(t, "Ann", got.Name())
	require.Equal(t, "ann@example.com", got.Email())
	require.Equal(t, "Str0ngP@ss!", got.Password())
}

func TestValidateReportsMissingFields(t *testing.T) {
	v := newTestValidator(t)

	_, fieldErrs := v.Validate(Input{})
	want := FieldErrors{
		"name":     {"Name is required."},
		"email":    {"Email is required."},
		"password": {"Password is required."},
	}
	if diff := cmp.Diff(want, fieldErrs); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateBlankNameIsRequired(t *testing.T) {
	v := newTestValidator(t)

	_, fieldErrs := v.Validate(Input{Name: "   ", Email: "ann@example.com", Password: "Str0ngP@ss!"})
	require.Equal(t, FieldErrors{"name": {"Name is required."}}, fieldErrs)
}

func TestValidateMalformedEmail(t *testing.T) {
	v := newTestValidator(t)

	_, fieldErrs := v.Validate(Input{Name: "Ann", Email: "not-an-email", Password: "Str0ngP@ss!"})
	require.Equal(t, FieldErrors{"email": {"Please enter a valid email."}}, fieldErrs)
}

func TestValidatePasswordRules(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{"too short", "a1!", []string{"Be at least 8 characters long"}},
		{"no letter", "12345678!", []string{"Contain at least one letter."}},
		{"no digit", "password!", []string{"Contain at least one number."}},
		{"no special", "password1", []string{"Contain at least one special character."}},
		{"only letters", "abc", []string{
			"Be at least 8 characters long",
			"Contain at least one number.",
			"Contain at least one special character.",
		}},
		{"accented letters only", "éèàçüöäß!", []string{
			"Contain at least one letter.",
			"Contain at least one number.",
		}},
		{"over bcrypt limit", "a1!" + strings.Repeat("x", MaxPasswordBytes), []string{"Be at most 72 bytes long."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fieldErrs := v.Validate(Input{Name: "Ann", Email: "ann@example.com", Password: tt.password})
			if diff := cmp.Diff(FieldErrors{"password": tt.want}, fieldErrs); diff != "" {
				t.Fatalf("password errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateNonASCIILetterIsSpecial(t *testing.T) {
	v := newTestValidator(t)

	got, fieldErrs := v.Validate(Input{Name: "Ann", Email: "ann@example.com", Password: "pässword1"})
	require.Nil(t, fieldErrs)
	require.Equal(t, "pässword1", got.Password())
}

func TestValidateStripsMarkupFromName(t *testing.T) {
	v := newTestValidator(t)

	got, fieldErrs := v.Validate(Input{Name: "<b>Ann</b> & Bob", Email: "ann@example.com", Password: "Str0ngP@ss!"})
	require.Nil(t, fieldErrs)
	require.Equal(t, "Ann & Bob", got.Name())
}

func TestValidateNameMinLength(t *testing.T) {
	v, err := NewValidator(Policy{NameMinLength: 3, PasswordMinLength: 8})
	require.NoError(t, err)

	_, fieldErrs := v.Validate(Input{Name: "Al", Email: "al@example.com", Password: "Str0ngP@ss!"})
	require.Equal(t, FieldErrors{"name": {"Name must be at least 3 characters long."}}, fieldErrs)
}
