package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatName(t *testing.T) {
	assert.Equal(t, "John Doe", FormatName("  jOHN    doe "))
	assert.Equal(t, "Mary-jane O'neil", FormatName("MARY-JANE o'neil"))
	assert.Equal(t, "", FormatName("   "))
}

func TestFormatEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", FormatEmail("A@B.COM"))
	assert.Equal(t, "j@x.com", FormatEmail("  J@X.COM\t"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "5551234567", FormatPhone("(555) 123-4567"))
	assert.Equal(t, "1555123456", FormatPhone("+1 555 123 4567"))
	assert.Equal(t, "123", FormatPhone("1-2-3"))
}

func TestFormatCollege(t *testing.T) {
	assert.Equal(t, "Mit", FormatCollege(" mit "))
	assert.Equal(t, "Indian  Institute Of Technology", FormatCollege("INDIAN  institute of technology"))
}

func TestFormattersAreIdempotent(t *testing.T) {
	inputs := []string{
		"  john   DOE ",
		"A@B.COM",
		"(555) 123-4567 ext 89",
		"st.  xavier's   COLLEGE",
		"",
		" élodie durand",
	}
	formatters := map[string]func(string) string{
		"name":    FormatName,
		"email":   FormatEmail,
		"phone":   FormatPhone,
		"college": FormatCollege,
	}
	for label, f := range formatters {
		for _, in := range inputs {
			once := f(in)
			assert.Equal(t, once, f(once), "%s(%q)", label, in)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(Applicant{Name: "john doe", Email: "J@X.COM", Phone: "555-123-4567", College: "mit"})
	assert.Equal(t, Applicant{Name: "John Doe", Email: "j@x.com", Phone: "5551234567", College: "Mit"}, got)
}
