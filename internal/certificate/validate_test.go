package certificate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	cases := map[string]bool{
		"Al":                    false,
		"  Al  ":                false,
		"Ada":                   true,
		"  John Doe ":           true,
		strings.Repeat("a", 64): true,
		strings.Repeat("a", 65): false,
		"Zoë":                   true,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidateName(in), "name %q", in)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("A@B.COM"))
	assert.True(t, ValidateEmail(" j.doe+tag@mail.example.org "))
	assert.False(t, ValidateEmail("j@x"))
	assert.False(t, ValidateEmail("no-at-sign.com"))
	assert.False(t, ValidateEmail("j@x.c"))
	assert.False(t, ValidateEmail(""))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("(555) 123-4567"))
	assert.True(t, ValidatePhone("5551234567"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("+1 555 123 4567"))
}

func TestValidateCollege(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"MIT University", true},
		{"mit", true},
		{"St. Xavier's College", true},
		{"123", false},
		{"ab", false},
		{"Ab", false},
		{"test", false},
		{"DEMO", false},
		{" Sample ", false},
		{"!!!", false},
		{"12-34", false},
		{strings.Repeat("x", 101), false},
		{strings.Repeat("x", 100), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidateCollege(tc.in), "college %q", tc.in)
	}
}

func TestValidateCollegeBasicIsLenient(t *testing.T) {
	assert.True(t, ValidateCollegeBasic("test"))
	assert.True(t, ValidateCollegeBasic(strings.Repeat("x", 101)))
	assert.False(t, ValidateCollegeBasic("123"))
	assert.False(t, ValidateCollegeBasic("ab"))
}

func TestCheckFormShowsOnlyTouchedErrors(t *testing.T) {
	state := FormState{
		Values:  Applicant{Name: "Jo", Email: "bad", Phone: "5551234567", College: "MIT"},
		Touched: map[Field]bool{FieldName: true},
	}
	report := CheckForm(state)

	assert.False(t, report.Ready)
	assert.True(t, report.Fields[FieldName].ShowError)
	assert.NotEmpty(t, report.Fields[FieldName].Message)
	assert.False(t, report.Fields[FieldEmail].Valid)
	assert.False(t, report.Fields[FieldEmail].ShowError)
	assert.True(t, report.Fields[FieldPhone].Valid)
	assert.Empty(t, report.Fields[FieldPhone].Message)
}

func TestCheckFormReady(t *testing.T) {
	report := CheckForm(FormState{Values: Applicant{
		Name: "John Doe", Email: "j@x.com", Phone: "555-123-4567", College: "mit",
	}})
	assert.True(t, report.Ready)
	assert.Len(t, report.Fields, len(Fields))
}

func TestInvalidFields(t *testing.T) {
	bad := InvalidFields(Applicant{Name: "John Doe", Email: "j@x.com", Phone: "1", College: "xyz"})
	assert.Equal(t, map[Field]string{
		FieldPhone:   fieldMessages[FieldPhone],
		FieldCollege: fieldMessages[FieldCollege],
	}, bad)
}
