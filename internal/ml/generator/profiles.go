package generator

import (
	"math"

	"github.com/clinic/clinic/internal/ml/dataset"
)

// profile forces a subset of a baseline record into the ranges that
// characterize one label.
type profile func(g *DataGenerator, r *dataset.Record)

var profiles = map[string]profile{
	dataset.LabelHealthy:       healthyProfile,
	dataset.LabelDiabetes:      diabetesProfile,
	dataset.LabelHypertension:  hypertensionProfile,
	dataset.LabelHeartDisease:  heartDiseaseProfile,
	dataset.LabelStrokeRisk:    strokeRiskProfile,
	dataset.LabelKidneyDisease: kidneyDiseaseProfile,
	dataset.LabelLiverDisease:  liverDiseaseProfile,
	dataset.LabelAsthma:        asthmaProfile,
}

func healthyProfile(g *DataGenerator, r *dataset.Record) {
	if g.chance(0.2) {
		r.Activity = "High"
	}
	if g.chance(0.1) {
		r.Alcohol = "Moderate"
	}
}

func diabetesProfile(g *DataGenerator, r *dataset.Record) {
	r.Glucose = g.intn(130, 250)
	r.BMI = g.uniform(28, 40)
	r.FamilyHistory = g.either(dataset.LabelDiabetes, 0.7, "None")
	r.Diet = "Poor"
	r.Activity = "Low"
}

func hypertensionProfile(g *DataGenerator, r *dataset.Record) {
	r.SystolicBP = g.intn(140, 180)
	r.DiastolicBP = g.intn(90, 110)
	r.Age = math.Max(r.Age, 40)
	r.Diet = g.either("Poor", 0.7, "Good")
	r.FamilyHistory = g.either(dataset.LabelHypertension, 0.6, "None")
}

func heartDiseaseProfile(g *DataGenerator, r *dataset.Record) {
	r.Age = math.Max(r.Age, 50)
	r.Cholesterol = g.intn(240, 350)
	r.SystolicBP = g.intn(130, 160)
	r.Smoking = g.either("Current", 0.7, "Former")
	r.Diet = "Poor"
	r.FamilyHistory = g.either(dataset.LabelHeartDisease, 0.6, "None")
}

func strokeRiskProfile(g *DataGenerator, r *dataset.Record) {
	r.Age = math.Max(r.Age, 60)
	r.SystolicBP = g.intn(150, 200)
	r.BMI = g.uniform(30, 45)
	r.Smoking = "Current"
	r.FamilyHistory = g.either("Stroke", 0.5, "None")
}

func kidneyDiseaseProfile(g *DataGenerator, r *dataset.Record) {
	r.Age = math.Max(r.Age, 45)
	r.SystolicBP = g.intn(135, 170)
	// Overlaps the diabetes glucose band on purpose.
	r.Glucose = g.intn(110, 180)
	r.FamilyHistory = dataset.LabelKidneyDisease
}

func liverDiseaseProfile(g *DataGenerator, r *dataset.Record) {
	r.Alcohol = "High"
	r.Age = math.Max(r.Age, 35)
	r.BMI = g.uniform(25, 35)
	r.FamilyHistory = g.either(dataset.LabelLiverDisease, 0.4, "None")
}

func asthmaProfile(g *DataGenerator, r *dataset.Record) {
	r.FamilyHistory = dataset.LabelAsthma
	r.Smoking = g.weighted(smokingStatuses, []float64{0.6, 0.2, 0.2})
}
