package certificate

import "time"

// Applicant holds the issuance form fields as submitted.
type Applicant struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	College string `json:"college" form:"college"`
}

// Record is the stored verification entry for one issued certificate.
type Record struct {
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	College       string     `json:"college"`
	GeneratedDate time.Time  `json:"generatedDate"`
	Verified      bool       `json:"verified"`
	VerifiedDate  *time.Time `json:"verifiedDate,omitempty"`
}

// NewRecord builds an unverified record for an already formatted applicant.
func NewRecord(code string, a Applicant, now time.Time) Record {
	return Record{
		Code:          code,
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		College:       a.College,
		GeneratedDate: now.UTC(),
	}
}
