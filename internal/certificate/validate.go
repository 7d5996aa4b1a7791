package certificate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern  = regexp.MustCompile(`\D`)
	letterPattern    = regexp.MustCompile(`[a-zA-Z]`)
	digitsOnly       = regexp.MustCompile(`^\d+$`)
	digitsPunctOnly  = regexp.MustCompile(`^[\d\s[:punct:]]+$`)
	specialOnly      = regexp.MustCompile(`^[^a-zA-Z0-9\s]+$`)
	shortLettersOnly = regexp.MustCompile(`^[a-zA-Z]{1,2}$`)
)

// placeholderColleges are values people type to get past the form.
var placeholderColleges = map[string]bool{
	"test":    true,
	"demo":    true,
	"example": true,
	"sample":  true,
	"xyz":     true,
	"abc":     true,
	"123":     true,
}

const (
	nameMinLen       = 3
	nameMaxLen       = 64
	phoneDigits      = 10
	collegeMinLen    = 3
	collegeMaxLength = 100
)

// ValidateName checks that the trimmed name is 3 to 64 characters long.
func ValidateName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= nameMinLen && n <= nameMaxLen
}

// ValidateEmail checks for a local@domain.tld address.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidatePhone checks for exactly 10 digits once separators are removed.
func ValidatePhone(phone string) bool {
	return len(nonDigitPattern.ReplaceAllString(phone, "")) == phoneDigits
}

// ValidateCollegeBasic is the lenient college rule: at least three
// characters, at least one letter, not purely numeric.
func ValidateCollegeBasic(college string) bool {
	trimmed := strings.TrimSpace(college)
	return utf8.RuneCountInString(trimmed) >= collegeMinLen &&
		letterPattern.MatchString(trimmed) &&
		!digitsOnly.MatchString(trimmed)
}

// ValidateCollege applies the basic rule plus the placeholder and shape checks.
func ValidateCollege(college string) bool {
	if !ValidateCollegeBasic(college) {
		return false
	}
	trimmed := strings.TrimSpace(college)
	switch {
	case utf8.RuneCountInString(trimmed) > collegeMaxLength:
		return false
	case digitsPunctOnly.MatchString(trimmed):
		return false
	case specialOnly.MatchString(trimmed):
		return false
	case shortLettersOnly.MatchString(trimmed):
		return false
	case placeholderColleges[strings.ToLower(trimmed)]:
		return false
	}
	return true
}

// Field names a form input.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldCollege Field = "college"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldCollege}

var fieldMessages = map[Field]string{
	FieldName:    "Name must be between 3 and 64 characters",
	FieldEmail:   "Please enter a valid email address",
	FieldPhone:   "Phone number must be exactly 10 digits",
	FieldCollege: "Please enter a valid college or institution name",
}

// FormState is the issuance form as the client sees it: the current values
// and which fields the user has interacted with.
type FormState struct {
	Values  Applicant      `json:"values"`
	Touched map[Field]bool `json:"touched"`
}

// FieldReport is the validity of one field.
type FieldReport struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	// ShowError is set for invalid fields the user has already touched.
	ShowError bool `json:"show_error"`
}

// FormReport summarises a FormState. Ready gates the submit control.
type FormReport struct {
	Ready  bool                  `json:"ready"`
	Fields map[Field]FieldReport `json:"fields"`
}

// CheckForm validates every field of the form.
func CheckForm(state FormState) FormReport {
	report := FormReport{Ready: true, Fields: make(map[Field]FieldReport, len(Fields))}
	for _, f := range Fields {
		valid := validateField(f, state.Values)
		fr := FieldReport{Valid: valid}
		if !valid {
			report.Ready = false
			fr.Message = fieldMessages[f]
			fr.ShowError = state.Touched[f]
		}
		report.Fields[f] = fr
	}
	return report
}

// InvalidFields returns the fields of a that fail validation, with messages.
func InvalidFields(a Applicant) map[Field]string {
	out := make(map[Field]string)
	for _, f := range Fields {
		if !validateField(f, a) {
			out[f] = fieldMessages[f]
		}
	}
	return out
}

func validateField(f Field, a Applicant) bool {
	switch f {
	case FieldName:
		return ValidateName(a.Name)
	case FieldEmail:
		return ValidateEmail(a.Email)
	case FieldPhone:
		return ValidatePhone(a.Phone)
	case FieldCollege:
		return ValidateCollege(a.College)
	}
	return false
}
