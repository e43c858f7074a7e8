package dataset

// Target labels produced by the generator and predicted by the classifier.
const (
	LabelHealthy       = "Healthy"
	LabelDiabetes      = "Diabetes"
	LabelHypertension  = "Hypertension"
	LabelHeartDisease  = "HeartDisease"
	LabelStrokeRisk    = "StrokeRisk"
	LabelKidneyDisease = "KidneyDisease"
	LabelLiverDisease  = "LiverDisease"
	LabelAsthma        = "Asthma"
)

// Labels is the closed label set in generation order.
var Labels = []string{
	LabelHealthy, LabelDiabetes, LabelHypertension, LabelHeartDisease,
	LabelStrokeRisk, LabelKidneyDisease, LabelLiverDisease, LabelAsthma,
}

// IsLabel reports whether s belongs to the closed label set.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if l == s {
			return true
		}
	}
	return false
}
