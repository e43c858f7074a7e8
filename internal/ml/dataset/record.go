// Package dataset defines the fixed 13-field feature schema shared by the
// generator, the training pipeline and the prediction service, together with
// CSV reading and writing of labeled samples.
package dataset

import "fmt"

// Column names in the exact order the scaler and the model consume them.
const (
	ColAge           = "Age"
	ColGender        = "Gender"
	ColBMI           = "BMI"
	ColSystolicBP    = "BloodPressure_Systolic"
	ColDiastolicBP   = "BloodPressure_Diastolic"
	ColGlucose       = "Glucose_Fasting_mg_dL"
	ColCholesterol   = "Cholesterol_Total_mg_dL"
	ColSmoking       = "Smoking"
	ColAlcohol       = "AlcoholIntake"
	ColActivity      = "PhysicalActivity"
	ColDiet          = "DietQuality"
	ColSleepHours    = "SleepHours"
	ColFamilyHistory = "FamilyHistory"
	ColTargetLabel   = "TargetLabel"
)

// FeatureColumns is the column contract between training and inference.
var FeatureColumns = []string{
	ColAge, ColGender, ColBMI, ColSystolicBP, ColDiastolicBP,
	ColGlucose, ColCholesterol, ColSmoking, ColAlcohol, ColActivity,
	ColDiet, ColSleepHours, ColFamilyHistory,
}

// CategoricalColumns lists the feature columns that go through a label encoder.
var CategoricalColumns = []string{
	ColGender, ColSmoking, ColAlcohol, ColActivity, ColDiet, ColFamilyHistory,
}

// IsCategorical reports whether col is label-encoded before scaling.
func IsCategorical(col string) bool {
	for _, c := range CategoricalColumns {
		if c == col {
			return true
		}
	}
	return false
}

// Record is one Feature Vector. Numeric vitals are float64 so the same type
// serves generated integers and free-form inference input.
type Record struct {
	Age           float64 `csv:"Age" json:"age"`
	Gender        string  `csv:"Gender" json:"gender"`
	BMI           float64 `csv:"BMI" json:"bmi"`
	SystolicBP    float64 `csv:"BloodPressure_Systolic" json:"bp_sys"`
	DiastolicBP   float64 `csv:"BloodPressure_Diastolic" json:"bp_dia"`
	Glucose       float64 `csv:"Glucose_Fasting_mg_dL" json:"glucose"`
	Cholesterol   float64 `csv:"Cholesterol_Total_mg_dL" json:"chol"`
	Smoking       string  `csv:"Smoking" json:"smoking"`
	Alcohol       string  `csv:"AlcoholIntake" json:"alcohol"`
	Activity      string  `csv:"PhysicalActivity" json:"activity"`
	Diet          string  `csv:"DietQuality" json:"diet"`
	SleepHours    float64 `csv:"SleepHours" json:"sleep"`
	FamilyHistory string  `csv:"FamilyHistory" json:"family_history"`
}

// Sample is a Record with its target label, i.e. one dataset row.
type Sample struct {
	Record
	Label string `csv:"TargetLabel" json:"label"`
}

// Numeric returns the value of a numeric column.
func (r Record) Numeric(col string) (float64, error) {
	switch col {
	case ColAge:
		return r.Age, nil
	case ColBMI:
		return r.BMI, nil
	case ColSystolicBP:
		return r.SystolicBP, nil
	case ColDiastolicBP:
		return r.DiastolicBP, nil
	case ColGlucose:
		return r.Glucose, nil
	case ColCholesterol:
		return r.Cholesterol, nil
	case ColSleepHours:
		return r.SleepHours, nil
	}
	return 0, fmt.Errorf("column %q is not numeric", col)
}

// Category returns the value of a categorical column.
func (r Record) Category(col string) (string, error) {
	switch col {
	case ColGender:
		return r.Gender, nil
	case ColSmoking:
		return r.Smoking, nil
	case ColAlcohol:
		return r.Alcohol, nil
	case ColActivity:
		return r.Activity, nil
	case ColDiet:
		return r.Diet, nil
	case ColFamilyHistory:
		return r.FamilyHistory, nil
	}
	return "", fmt.Errorf("column %q is not categorical", col)
}

// Vector assembles the record in FeatureColumns order. encode maps a
// categorical (column, value) pair to its integer code.
func (r Record) Vector(encode func(col, value string) int) []float64 {
	out := make([]float64, 0, len(FeatureColumns))
	for _, col := range FeatureColumns {
		if IsCategorical(col) {
			v, _ := r.Category(col)
			out = append(out, float64(encode(col, v)))
			continue
		}
		v, _ := r.Numeric(col)
		out = append(out, v)
	}
	return out
}
