package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldSet is one structured clinical observation of a pregnant patient.
// Units follow the intake form: kg, cm, mmHg, beats or breaths per minute,
// percent, degrees Celsius, g/dL, 10^9/L and mg/dL.
type FieldSet struct {
	Age               int               `json:"age" jsonschema:"maternal age in years (10-60)"`
	WeightKg          float64           `json:"weight" jsonschema:"body weight in kg (30-200)"`
	HeightCm          float64           `json:"height" jsonschema:"body height in cm (100-220)"`
	Systolic          int               `json:"systolic" jsonschema:"systolic blood pressure in mmHg (60-250)"`
	Diastolic         int               `json:"diastolic" jsonschema:"diastolic blood pressure in mmHg (40-150)"`
	HeartRate         int               `json:"heart_rate" jsonschema:"heart rate per minute (40-200)"`
	RespiratoryRate   int               `json:"respiratory_rate" jsonschema:"respiratory rate per minute (10-60)"`
	SpO2              int               `json:"spo2" jsonschema:"oxygen saturation in percent (60-100)"`
	Temperature       float64           `json:"temperature" jsonschema:"body temperature in Celsius (30-45)"`
	Hemoglobin        float64           `json:"hemoglobin" jsonschema:"hemoglobin in g/dL (4-20)"`
	Platelets         float64           `json:"platelets" jsonschema:"platelet count in 10^9/L (50-1000)"`
	UrineProtein      UrineProteinGrade `json:"urine_protein" jsonschema:"urine protein dipstick grade 0-4"`
	Glucose           float64           `json:"glucose" jsonschema:"blood glucose in mg/dL (50-500)"`
	Gravida           int               `json:"gravida" jsonschema:"number of pregnancies (1-20)"`
	Parity            int               `json:"parity" jsonschema:"number of deliveries (0-15)"`
	Abortus           int               `json:"abortus" jsonschema:"number of miscarriages (0-10)"`
	PriorHypertension YesNo             `json:"prior_hypertension" jsonschema:"history of hypertension"`
	PriorDiabetes     YesNo             `json:"prior_diabetes" jsonschema:"history of diabetes"`
	GestationalAge    int               `json:"gestational_age" jsonschema:"gestational age in weeks (10-41)"`
	FetusCount        int               `json:"fetus_count,omitempty" jsonschema:"number of fetuses, defaults to 1"`
}

// DefaultFieldSet returns the "normal values" observation the intake form
// resets to.
func DefaultFieldSet() FieldSet {
	return FieldSet{
		Age:               28,
		WeightKg:          60.0,
		HeightCm:          160.0,
		Systolic:          110,
		Diastolic:         75,
		HeartRate:         85,
		RespiratoryRate:   19,
		SpO2:              98,
		Temperature:       36.6,
		Hemoglobin:        12.0,
		Platelets:         250.0,
		UrineProtein:      ProteinNegative,
		Glucose:           90.0,
		Gravida:           2,
		Parity:            1,
		Abortus:           0,
		PriorHypertension: false,
		PriorDiabetes:     false,
		GestationalAge:    26,
		FetusCount:        1,
	}
}

// Normalize fills defaults for fields the intake form does not collect.
func (f FieldSet) Normalize() FieldSet {
	if f.FetusCount == 0 {
		f.FetusCount = 1
	}
	return f
}

// FieldRange is the accepted closed interval for one numeric field.
type FieldRange struct {
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// FieldRanges is the clinical range table enforced by Validate.
var FieldRanges = []FieldRange{
	{"age", 10, 60},
	{"weight", 30, 200},
	{"height", 100, 220},
	{"systolic", 60, 250},
	{"diastolic", 40, 150},
	{"heart_rate", 40, 200},
	{"respiratory_rate", 10, 60},
	{"spo2", 60, 100},
	{"temperature", 30, 45},
	{"hemoglobin", 4, 20},
	{"platelets", 50, 1000},
	{"urine_protein", 0, 4},
	{"glucose", 50, 500},
	{"gravida", 1, 20},
	{"parity", 0, 15},
	{"abortus", 0, 10},
	{"gestational_age", 10, 41},
}

func (f FieldSet) value(field string) float64 {
	switch field {
	case "age":
		return float64(f.Age)
	case "weight":
		return f.WeightKg
	case "height":
		return f.HeightCm
	case "systolic":
		return float64(f.Systolic)
	case "diastolic":
		return float64(f.Diastolic)
	case "heart_rate":
		return float64(f.HeartRate)
	case "respiratory_rate":
		return float64(f.RespiratoryRate)
	case "spo2":
		return float64(f.SpO2)
	case "temperature":
		return f.Temperature
	case "hemoglobin":
		return f.Hemoglobin
	case "platelets":
		return f.Platelets
	case "urine_protein":
		return float64(f.UrineProtein)
	case "glucose":
		return f.Glucose
	case "gravida":
		return float64(f.Gravida)
	case "parity":
		return float64(f.Parity)
	case "abortus":
		return float64(f.Abortus)
	case "gestational_age":
		return float64(f.GestationalAge)
	default:
		panic("domain: unknown field " + field)
	}
}

// Validate checks every field against FieldRanges and returns all violations
// at once. Call Normalize first so an unset fetus count is accepted.
func (f FieldSet) Validate() error {
	var errs ValidationErrors
	for _, r := range FieldRanges {
		v := f.value(r.Field)
		// Written so that NaN fails the check.
		if !(v >= r.Min && v <= r.Max) {
			errs = append(errs, NewValidationError(r.Field,
				fmt.Sprintf("must be between %s and %s", formatBound(r.Min), formatBound(r.Max)), v))
		}
	}
	if f.FetusCount < 1 {
		errs = append(errs, NewValidationError("fetus_count", "must be at least 1", f.FetusCount))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// YesNo is a history flag that also accepts the intake form answers
// "Ya"/"Tidak" when decoded from JSON.
type YesNo bool

// UnmarshalJSON accepts JSON booleans and yes/no strings.
func (y *YesNo) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*y = YesNo(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidYesNo, string(data))
	}
	v, err := ParseYesNo(s)
	if err != nil {
		return err
	}
	*y = YesNo(v)
	return nil
}

// UnmarshalJSON accepts the grade as a number (0..4) or a dipstick label ("+3").
func (g *UrineProteinGrade) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseUrineProteinGrade(s)
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUrineGrade, raw)
	}
	*g = UrineProteinGrade(n)
	return nil
}
