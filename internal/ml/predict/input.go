package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/clinic/clinic/internal/ml/dataset"
)

// ParseError reports a numeric form field that could not be read.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s must be a number, got %q", e.Field, e.Value)
}

// Value is a raw form value. It binds from form fields and query params as
// text and from JSON as either a string or a number.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		*v = Value(b)
	}
	return nil
}

// UnmarshalParam implements echo.BindUnmarshaler.
func (v *Value) UnmarshalParam(s string) error {
	*v = Value(s)
	return nil
}

func (v Value) text() string { return strings.TrimSpace(string(v)) }

// Input is the prediction form as submitted by the client.
type Input struct {
	Age           Value `json:"age" form:"age"`
	Gender        Value `json:"gender" form:"gender"`
	BMI           Value `json:"bmi" form:"bmi"`
	SystolicBP    Value `json:"bp_sys" form:"bp_sys"`
	DiastolicBP   Value `json:"bp_dia" form:"bp_dia"`
	Glucose       Value `json:"glucose" form:"glucose"`
	Cholesterol   Value `json:"chol" form:"chol"`
	Smoking       Value `json:"smoking" form:"smoking"`
	Alcohol       Value `json:"alcohol" form:"alcohol"`
	Activity      Value `json:"activity" form:"activity"`
	Diet          Value `json:"diet" form:"diet"`
	SleepHours    Value `json:"sleep" form:"sleep"`
	FamilyHistory Value `json:"family_history" form:"family_history"`
}

// Record parses the numeric fields and copies the categorical ones verbatim.
// Categorical values are not checked here; unseen ones fall back at encoding.
func (in *Input) Record() (dataset.Record, error) {
	r := dataset.Record{
		Gender:        in.Gender.text(),
		Smoking:       in.Smoking.text(),
		Alcohol:       in.Alcohol.text(),
		Activity:      in.Activity.text(),
		Diet:          in.Diet.text(),
		FamilyHistory: in.FamilyHistory.text(),
	}
	numeric := []struct {
		field string
		src   Value
		dst   *float64
	}{
		{"age", in.Age, &r.Age},
		{"bmi", in.BMI, &r.BMI},
		{"bp_sys", in.SystolicBP, &r.SystolicBP},
		{"bp_dia", in.DiastolicBP, &r.DiastolicBP},
		{"glucose", in.Glucose, &r.Glucose},
		{"chol", in.Cholesterol, &r.Cholesterol},
		{"sleep", in.SleepHours, &r.SleepHours},
	}
	for _, n := range numeric {
		f, err := strconv.ParseFloat(n.src.text(), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return dataset.Record{}, &ParseError{Field: n.field, Value: n.src.text()}
		}
		*n.dst = f
	}
	return r, nil
}

// Summary is the one-line description of the inputs kept with a patient's
// prediction history.
func Summary(r dataset.Record) string {
	return fmt.Sprintf("Age:%s, BMI:%s, BP:%s/%s, Gluc:%s, Chol:%s, Smoke:%s, Alc:%s, Act:%s, Diet:%s, Sleep:%s",
		num(r.Age), num(r.BMI), num(r.SystolicBP), num(r.DiastolicBP), num(r.Glucose), num(r.Cholesterol),
		r.Smoking, r.Alcohol, r.Activity, r.Diet, num(r.SleepHours))
}

// num always keeps a decimal point so stored summaries read the same for
// integral and fractional inputs.
func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
