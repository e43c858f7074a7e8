package history

import (
	"github.com/google/uuid"
)

// DateLayout is the timestamp format stored in the Date column.
const DateLayout = "2006-01-02 15:04:05"

// Record is one stored prediction for a patient. The CSV columns match the
// history.csv layout the clinic has always used.
type Record struct {
	ID        uuid.UUID `csv:"-" json:"id"`
	PatientID string    `csv:"Patient ID" json:"patient_id"`
	Disease   string    `csv:"Disease" json:"disease"`
	RiskScore float64   `csv:"Risk Score" json:"risk_score"`
	Date      string    `csv:"Date" json:"date"`
	Inputs    string    `csv:"Inputs" json:"inputs"`
}
