package patient

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("patient not found")
	ErrDuplicateID  = errors.New("patient id already exists")
	ErrIDsExhausted = errors.New("no free patient ids left")
)

// Patient is a registered clinic patient. Column names follow patients.csv.
type Patient struct {
	PatientID      string `csv:"Patient ID" json:"patient_id"`
	Name           string `csv:"Name" json:"name"`
	Age            int    `csv:"Age" json:"age"`
	Gender         string `csv:"Gender" json:"gender"`
	BloodGroup     string `csv:"Blood Group" json:"blood_group"`
	Contact        string `csv:"Contact" json:"contact"`
	City           string `csv:"City/Village" json:"city"`
	MedicalHistory string `csv:"Medical History" json:"medical_history"`
}

// RegisterRequest is the self-registration form.
type RegisterRequest struct {
	Name       string `json:"name" form:"name"`
	Age        int    `json:"age" form:"age"`
	Gender     string `json:"gender" form:"gender"`
	BloodGroup string `json:"blood_group" form:"blood_group"`
	Contact    string `json:"contact" form:"contact"`
	City       string `json:"city" form:"city"`
}

// Stats summarizes the registry for the admin dashboard.
type Stats struct {
	Total  int `json:"total"`
	Male   int `json:"male"`
	Female int `json:"female"`
}

// NormalizeID trims whitespace and drops a trailing ".0" that spreadsheet
// tools leave behind when an id column was read as a float.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimSuffix(id, ".0")
}

// matchesLogin reports whether identifier names this patient, by exact id or
// case-insensitive name, and contact matches exactly.
func (p *Patient) matchesLogin(identifier, contact string) bool {
	if p.Contact != contact {
		return false
	}
	return NormalizeID(p.PatientID) == identifier || strings.EqualFold(p.Name, identifier)
}
