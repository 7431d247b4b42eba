// Package domain contains core business entities and types for preeclampsia risk
// assessment of pregnant patients from routine obstetric measurements.
//
// Guidance text follows the Indonesian Obstetrics and Gynecology Association (POGI)
// national guideline for hypertension in pregnancy.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DiagnosisCategory is the canonical preeclampsia category produced for one
// assessment. The zero value is not a valid category.
type DiagnosisCategory string

const (
	Normal             DiagnosisCategory = "NORMAL"
	MildPreeclampsia   DiagnosisCategory = "MILD_PREECLAMPSIA"
	SeverePreeclampsia DiagnosisCategory = "SEVERE_PREECLAMPSIA"
	Unrecognized       DiagnosisCategory = "UNRECOGNIZED"
)

// Categories lists every category in severity order, Unrecognized last.
var Categories = []DiagnosisCategory{Normal, MildPreeclampsia, SeverePreeclampsia, Unrecognized}

// Validation errors for clinical data integrity
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCategory   = errors.New("invalid diagnosis category")
	ErrInvalidUrineGrade = errors.New("invalid urine protein grade")
	ErrInvalidYesNo      = errors.New("invalid yes/no answer")
	ErrPrediction        = errors.New("prediction failed")
	ErrIncompatibleModel = errors.New("incompatible model artifact")
)

// IsValid reports whether c is one of the four known categories.
func (c DiagnosisCategory) IsValid() bool {
	switch c {
	case Normal, MildPreeclampsia, SeverePreeclampsia, Unrecognized:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c DiagnosisCategory) String() string {
	return string(c)
}

// Label returns the clinician-facing diagnosis label.
func (c DiagnosisCategory) Label() string {
	switch c {
	case Normal:
		return "Normal"
	case MildPreeclampsia:
		return "Mild Preeclampsia"
	case SeverePreeclampsia:
		return "Severe Preeclampsia"
	case Unrecognized:
		return "Unrecognized"
	default:
		return "Unknown category"
	}
}

// LocalLabel returns the Indonesian diagnosis label used on the original intake form.
func (c DiagnosisCategory) LocalLabel() string {
	switch c {
	case Normal:
		return "Normal"
	case MildPreeclampsia:
		return "Preeklampsia Ringan"
	case SeverePreeclampsia:
		return "Preeklampsia Berat"
	default:
		return "Kategori tidak dikenali"
	}
}

// RequiresClinicalAction reports whether the category needs follow-up beyond
// routine antenatal care. Unrecognized results are treated as actionable so a
// clinician reviews them.
func (c DiagnosisCategory) RequiresClinicalAction() bool {
	switch c {
	case Normal:
		return false
	default:
		return true
	}
}

// LogFields returns structured logging fields for audit trails.
func (c DiagnosisCategory) LogFields() map[string]any {
	return map[string]any{
		"category":        string(c),
		"category_label":  c.Label(),
		"is_valid":        c.IsValid(),
		"requires_action": c.RequiresClinicalAction(),
	}
}

// ParseDiagnosisCategory accepts either the canonical constant name or the
// clinician label, case-insensitively.
func ParseDiagnosisCategory(s string) (DiagnosisCategory, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "NORMAL":
		return Normal, nil
	case "MILD_PREECLAMPSIA", "MILD":
		return MildPreeclampsia, nil
	case "SEVERE_PREECLAMPSIA", "SEVERE":
		return SeverePreeclampsia, nil
	case "UNRECOGNIZED":
		return Unrecognized, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// UrineProteinGrade is the dipstick proteinuria grade, 0 through +4.
type UrineProteinGrade int

const (
	ProteinNegative UrineProteinGrade = iota
	ProteinPlus1
	ProteinPlus2
	ProteinPlus3
	ProteinPlus4
)

// urineGradeLabels maps dipstick labels to grades. Bare digits are accepted
// as aliases for the signed forms.
var urineGradeLabels = map[string]UrineProteinGrade{
	"0":  ProteinNegative,
	"+1": ProteinPlus1,
	"+2": ProteinPlus2,
	"+3": ProteinPlus3,
	"+4": ProteinPlus4,
	"1":  ProteinPlus1,
	"2":  ProteinPlus2,
	"3":  ProteinPlus3,
	"4":  ProteinPlus4,
}

// ParseUrineProteinGrade parses a dipstick label such as "0" or "+3".
func ParseUrineProteinGrade(s string) (UrineProteinGrade, error) {
	g, ok := urineGradeLabels[strings.TrimSpace(s)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUrineGrade, s)
	}
	return g, nil
}

// IsValid reports whether the grade is within 0..4.
func (g UrineProteinGrade) IsValid() bool {
	return g >= ProteinNegative && g <= ProteinPlus4
}

// String renders the dipstick label.
func (g UrineProteinGrade) String() string {
	if g == ProteinNegative {
		return "0"
	}
	return fmt.Sprintf("+%d", int(g))
}

// ParseYesNo parses the form answers "Ya"/"Tidak" and their English
// equivalents "yes"/"no".
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ya", "yes", "y", "true":
		return true, nil
	case "tidak", "no", "n", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidYesNo, s)
	}
}

// Language selects the guidance text language.
type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

// ParseLanguage falls back to English for anything other than "id".
func ParseLanguage(s string) Language {
	if strings.EqualFold(strings.TrimSpace(s), string(Indonesian)) {
		return Indonesian
	}
	return English
}
