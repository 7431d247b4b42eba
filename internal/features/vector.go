package features

import "github.com/preeclampsia-risk-mcp/internal/domain"

// Positions in the feature vector. The order is fixed by the fitted model and
// must not change without re-fitting it.
const (
	IndexAge = iota
	IndexBMI
	IndexSystolic
	IndexDiastolic
	IndexHeartRate
	IndexRespiratoryRate
	IndexSpO2
	IndexTemperature
	IndexGravida
	IndexParity
	IndexAbortus
	IndexGlucose
	IndexHemoglobin
	IndexPlatelets
	IndexUrineProtein
	IndexPriorHypertension
	IndexGestationalAge
	IndexFetusCount
	IndexPriorDiabetes

	Size
)

// FeatureNames is the column contract a model artifact must declare, in order.
var FeatureNames = [Size]string{
	IndexAge:               "age",
	IndexBMI:               "bmi",
	IndexSystolic:          "systolic",
	IndexDiastolic:         "diastolic",
	IndexHeartRate:         "heart_rate",
	IndexRespiratoryRate:   "respiratory_rate",
	IndexSpO2:              "spo2",
	IndexTemperature:       "temperature",
	IndexGravida:           "gravida",
	IndexParity:            "parity",
	IndexAbortus:           "abortus",
	IndexGlucose:           "glucose",
	IndexHemoglobin:        "hemoglobin",
	IndexPlatelets:         "platelets",
	IndexUrineProtein:      "urine_protein_grade",
	IndexPriorHypertension: "prior_hypertension",
	IndexGestationalAge:    "gestational_age",
	IndexFetusCount:        "fetus_count",
	IndexPriorDiabetes:     "prior_diabetes",
}

// Vector is the ordered model input.
type Vector [Size]float64

// Names returns a copy of FeatureNames as a slice.
func Names() []string {
	names := make([]string, Size)
	copy(names, FeatureNames[:])
	return names
}

// Assemble builds the feature vector from an observation. The caller is
// expected to have normalized and validated fs; an unset fetus count is still
// encoded as a singleton pregnancy.
func Assemble(fs domain.FieldSet) Vector {
	fetusCount := fs.FetusCount
	if fetusCount == 0 {
		fetusCount = 1
	}

	var v Vector
	v[IndexAge] = float64(fs.Age)
	v[IndexBMI] = DeriveBMI(fs.WeightKg, fs.HeightCm)
	v[IndexSystolic] = float64(fs.Systolic)
	v[IndexDiastolic] = float64(fs.Diastolic)
	v[IndexHeartRate] = float64(fs.HeartRate)
	v[IndexRespiratoryRate] = float64(fs.RespiratoryRate)
	v[IndexSpO2] = float64(fs.SpO2)
	v[IndexTemperature] = fs.Temperature
	v[IndexGravida] = float64(fs.Gravida)
	v[IndexParity] = float64(fs.Parity)
	v[IndexAbortus] = float64(fs.Abortus)
	v[IndexGlucose] = fs.Glucose
	v[IndexHemoglobin] = fs.Hemoglobin
	v[IndexPlatelets] = fs.Platelets
	v[IndexUrineProtein] = EncodeUrineProtein(fs.UrineProtein)
	v[IndexPriorHypertension] = EncodeFlag(bool(fs.PriorHypertension))
	v[IndexGestationalAge] = float64(fs.GestationalAge)
	v[IndexFetusCount] = float64(fetusCount)
	v[IndexPriorDiabetes] = EncodeFlag(bool(fs.PriorDiabetes))
	return v
}

// Slice returns the vector as a slice for predictor calls.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Size)
	for i, name := range FeatureNames {
		m[name] = v[i]
	}
	return m
}

// MatchesContract reports whether names equals FeatureNames in order.
func MatchesContract(names []string) bool {
	if len(names) != Size {
		return false
	}
	for i, name := range names {
		if name != FeatureNames[i] {
			return false
		}
	}
	return true
}
