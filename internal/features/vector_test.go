package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func TestAssemble_DefaultObservation(t *testing.T) {
	v := Assemble(domain.DefaultFieldSet())

	expected := Vector{
		28, 23.44, 110, 75, 85, 19, 98, 36.6,
		2, 1, 0, 90, 12.0, 250,
		0, 0, 26, 1, 0,
	}
	assert.Equal(t, expected, v)
}

func TestAssemble_Encodings(t *testing.T) {
	fs := domain.DefaultFieldSet()
	fs.UrineProtein = domain.ProteinPlus3
	fs.PriorHypertension = true
	fs.PriorDiabetes = true
	fs.FetusCount = 0

	v := Assemble(fs)

	assert.Equal(t, 3.0, v[IndexUrineProtein])
	assert.Equal(t, 1.0, v[IndexPriorHypertension])
	assert.Equal(t, 1.0, v[IndexPriorDiabetes])
	assert.Equal(t, 1.0, v[IndexFetusCount], "unset fetus count defaults to one")
}

func TestAssemble_UrineProteinFromFormLabel(t *testing.T) {
	grade, err := domain.ParseUrineProteinGrade("+3")
	require.NoError(t, err)

	fs := domain.DefaultFieldSet()
	fs.UrineProtein = grade

	assert.Equal(t, 3.0, Assemble(fs)[IndexUrineProtein])
}

func TestAssemble_SingleFieldChangesSingleIndex(t *testing.T) {
	base := domain.DefaultFieldSet()
	baseVec := Assemble(base)

	tests := []struct {
		name   string
		mutate func(*domain.FieldSet)
		index  int
	}{
		{"age", func(f *domain.FieldSet) { f.Age = 41 }, IndexAge},
		{"systolic", func(f *domain.FieldSet) { f.Systolic = 170 }, IndexSystolic},
		{"diastolic", func(f *domain.FieldSet) { f.Diastolic = 115 }, IndexDiastolic},
		{"heart rate", func(f *domain.FieldSet) { f.HeartRate = 120 }, IndexHeartRate},
		{"respiratory rate", func(f *domain.FieldSet) { f.RespiratoryRate = 28 }, IndexRespiratoryRate},
		{"spo2", func(f *domain.FieldSet) { f.SpO2 = 91 }, IndexSpO2},
		{"temperature", func(f *domain.FieldSet) { f.Temperature = 38.2 }, IndexTemperature},
		{"gravida", func(f *domain.FieldSet) { f.Gravida = 5 }, IndexGravida},
		{"parity", func(f *domain.FieldSet) { f.Parity = 3 }, IndexParity},
		{"abortus", func(f *domain.FieldSet) { f.Abortus = 2 }, IndexAbortus},
		{"glucose", func(f *domain.FieldSet) { f.Glucose = 180 }, IndexGlucose},
		{"hemoglobin", func(f *domain.FieldSet) { f.Hemoglobin = 9.1 }, IndexHemoglobin},
		{"platelets", func(f *domain.FieldSet) { f.Platelets = 90 }, IndexPlatelets},
		{"urine protein", func(f *domain.FieldSet) { f.UrineProtein = domain.ProteinPlus2 }, IndexUrineProtein},
		{"prior hypertension", func(f *domain.FieldSet) { f.PriorHypertension = true }, IndexPriorHypertension},
		{"gestational age", func(f *domain.FieldSet) { f.GestationalAge = 37 }, IndexGestationalAge},
		{"fetus count", func(f *domain.FieldSet) { f.FetusCount = 2 }, IndexFetusCount},
		{"prior diabetes", func(f *domain.FieldSet) { f.PriorDiabetes = true }, IndexPriorDiabetes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := base
			tt.mutate(&fs)
			v := Assemble(fs)

			for i := 0; i < Size; i++ {
				if i == tt.index {
					assert.NotEqual(t, baseVec[i], v[i], "index %d (%s) should change", i, FeatureNames[i])
					continue
				}
				assert.Equal(t, baseVec[i], v[i], "index %d (%s) should not change", i, FeatureNames[i])
			}
		})
	}
}

func TestAssemble_WeightOnlyMovesBMI(t *testing.T) {
	fs := domain.DefaultFieldSet()
	fs.WeightKg = 80

	v := Assemble(fs)
	base := Assemble(domain.DefaultFieldSet())

	assert.Equal(t, 31.25, v[IndexBMI])
	v[IndexBMI] = base[IndexBMI]
	assert.Equal(t, base, v)
}

func TestAssemble_IsStable(t *testing.T) {
	fs := domain.DefaultFieldSet()
	assert.Equal(t, Assemble(fs), Assemble(fs))
}

func TestFeatureNamesContract(t *testing.T) {
	assert.Equal(t, 19, Size)
	assert.Equal(t, []string{
		"age", "bmi", "systolic", "diastolic", "heart_rate", "respiratory_rate",
		"spo2", "temperature", "gravida", "parity", "abortus", "glucose",
		"hemoglobin", "platelets", "urine_protein_grade", "prior_hypertension",
		"gestational_age", "fetus_count", "prior_diabetes",
	}, Names())
}

func TestMatchesContract(t *testing.T) {
	assert.True(t, MatchesContract(Names()))

	swapped := Names()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.False(t, MatchesContract(swapped))
	assert.False(t, MatchesContract(Names()[:18]))
}

func TestVectorMapAndSlice(t *testing.T) {
	v := Assemble(domain.DefaultFieldSet())

	m := v.Map()
	assert.Len(t, m, Size)
	assert.Equal(t, 110.0, m["systolic"])

	s := v.Slice()
	s[0] = 99
	assert.Equal(t, 28.0, v[IndexAge], "slice must be a copy")
}

func TestEncodeAnswer(t *testing.T) {
	yes, err := EncodeAnswer("Ya")
	require.NoError(t, err)
	assert.Equal(t, 1.0, yes)

	no, err := EncodeAnswer("Tidak")
	require.NoError(t, err)
	assert.Equal(t, 0.0, no)

	_, err = EncodeAnswer("entah")
	assert.ErrorIs(t, err, domain.ErrInvalidYesNo)
}
