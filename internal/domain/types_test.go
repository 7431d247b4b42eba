package domain

import (
	"errors"
	"testing"
)

func TestDiagnosisCategoryConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    DiagnosisCategory
		expected string
	}{
		{"Normal", Normal, "NORMAL"},
		{"Mild", MildPreeclampsia, "MILD_PREECLAMPSIA"},
		{"Severe", SeverePreeclampsia, "SEVERE_PREECLAMPSIA"},
		{"Unrecognized", Unrecognized, "UNRECOGNIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.String() != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, tt.value.String())
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}

	if DiagnosisCategory("MODERATE").IsValid() {
		t.Error("Expected unknown category to be invalid")
	}
}

func TestDiagnosisCategoryRequiresClinicalAction(t *testing.T) {
	if Normal.RequiresClinicalAction() {
		t.Error("Normal should not require clinical action")
	}
	for _, c := range []DiagnosisCategory{MildPreeclampsia, SeverePreeclampsia, Unrecognized} {
		if !c.RequiresClinicalAction() {
			t.Errorf("%s should require clinical action", c)
		}
	}
}

func TestDiagnosisCategoryLabels(t *testing.T) {
	if got := SeverePreeclampsia.LocalLabel(); got != "Preeklampsia Berat" {
		t.Errorf("Expected Preeklampsia Berat, got %s", got)
	}
	if got := MildPreeclampsia.Label(); got != "Mild Preeclampsia" {
		t.Errorf("Expected Mild Preeclampsia, got %s", got)
	}
	if got := Unrecognized.LocalLabel(); got != "Kategori tidak dikenali" {
		t.Errorf("Expected Kategori tidak dikenali, got %s", got)
	}
}

func TestParseDiagnosisCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected DiagnosisCategory
		wantErr  bool
	}{
		{"NORMAL", Normal, false},
		{"normal", Normal, false},
		{"Mild Preeclampsia", MildPreeclampsia, false},
		{"severe-preeclampsia", SeverePreeclampsia, false},
		{"severe", SeverePreeclampsia, false},
		{"unrecognized", Unrecognized, false},
		{"eclampsia", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDiagnosisCategory(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCategory) {
					t.Errorf("Expected ErrInvalidCategory, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseUrineProteinGrade(t *testing.T) {
	tests := []struct {
		input    string
		expected UrineProteinGrade
		wantErr  bool
	}{
		{"0", ProteinNegative, false},
		{"+1", ProteinPlus1, false},
		{"+2", ProteinPlus2, false},
		{"+3", ProteinPlus3, false},
		{"+4", ProteinPlus4, false},
		{"3", ProteinPlus3, false},
		{"+5", 0, true},
		{"-1", 0, true},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUrineProteinGrade(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUrineGrade) {
					t.Errorf("Expected ErrInvalidUrineGrade, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestUrineProteinGradeString(t *testing.T) {
	if ProteinNegative.String() != "0" {
		t.Errorf("Expected 0, got %s", ProteinNegative.String())
	}
	if ProteinPlus3.String() != "+3" {
		t.Errorf("Expected +3, got %s", ProteinPlus3.String())
	}
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"Ya", true, false},
		{"Tidak", false, false},
		{"yes", true, false},
		{"NO", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseYesNo(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseLanguage(t *testing.T) {
	if ParseLanguage("ID") != Indonesian {
		t.Error("Expected Indonesian")
	}
	if ParseLanguage("fr") != English {
		t.Error("Expected fallback to English")
	}
}
