package certificate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatName collapses whitespace and title-cases each word.
func FormatName(name string) string {
	return titleWords(strings.ToLower(strings.Join(strings.Fields(name), " ")))
}

// FormatEmail trims and lowercases.
func FormatEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatPhone keeps the first ten digits.
func FormatPhone(phone string) string {
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	if len(digits) > phoneDigits {
		digits = digits[:phoneDigits]
	}
	return digits
}

// FormatCollege trims and title-cases each space separated word.
// Unlike FormatName it leaves internal whitespace alone.
func FormatCollege(college string) string {
	return titleWords(strings.ToLower(strings.TrimSpace(college)))
}

// Normalize formats every applicant field.
func Normalize(a Applicant) Applicant {
	return Applicant{
		Name:    FormatName(a.Name),
		Email:   FormatEmail(a.Email),
		Phone:   FormatPhone(a.Phone),
		College: FormatCollege(a.College),
	}
}

func titleWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
