package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func TestRecommendationEngine_Severe(t *testing.T) {
	rec := NewRecommendationEngine(domain.English).Recommend(domain.SeverePreeclampsia)

	assert.Equal(t, domain.SeverePreeclampsia, rec.Category)
	assert.Equal(t, GuidelineSource, rec.Source)
	assert.Len(t, rec.Actions, 6)
	assert.Contains(t, rec.Actions[0], "admission")
	assert.Contains(t, rec.Text, "Magnesium sulfate")
	assert.Contains(t, rec.Text, "labetalol, nifedipine")
	assert.Contains(t, rec.Text, "termination")
	assert.Contains(t, rec.Text, "ultrasound")
	assert.Contains(t, rec.Text, "type A")
}

func TestRecommendationEngine_Mild(t *testing.T) {
	rec := NewRecommendationEngine(domain.English).Recommend(domain.MildPreeclampsia)

	assert.Len(t, rec.Actions, 4)
	assert.Contains(t, rec.Text, "Calcium supplementation 1 g/day")
	assert.Contains(t, rec.Text, "16 weeks")
	assert.Contains(t, rec.Text, "headache")
}

func TestRecommendationEngine_Normal(t *testing.T) {
	rec := NewRecommendationEngine(domain.English).Recommend(domain.Normal)

	assert.Len(t, rec.Actions, 3)
	assert.Contains(t, rec.Text, "danger signs")
	assert.Contains(t, rec.Text, "every visit")
}

func TestRecommendationEngine_Unrecognized(t *testing.T) {
	e := NewRecommendationEngine(domain.English)

	rec := e.Recommend(domain.Unrecognized)
	assert.Equal(t, "Category not recognized.", rec.Text)
	assert.Empty(t, rec.Actions)

	rec = e.Recommend(domain.DiagnosisCategory("ECLAMPSIA"))
	assert.Equal(t, domain.Unrecognized, rec.Category)
}

func TestRecommendationEngine_Indonesian(t *testing.T) {
	e := NewRecommendationEngine(domain.Indonesian)

	severe := e.Recommend(domain.SeverePreeclampsia)
	assert.Equal(t, domain.Indonesian, severe.Language)
	assert.Equal(t, "Rawat inap segera", severe.Actions[0])
	assert.Contains(t, severe.Text, "Rujukan ke RS tipe A")

	assert.Equal(t, "Kategori tidak dikenali.", e.Recommend(domain.Unrecognized).Text)
	assert.Equal(t, "Kategori tidak dikenali", e.Recommend(domain.Unrecognized).Title)
}

func TestRecommendationEngine_LanguagesAgreeOnActionCount(t *testing.T) {
	e := NewRecommendationEngine(domain.English)
	for _, c := range domain.Categories {
		en := e.RecommendIn(c, domain.English)
		id := e.RecommendIn(c, domain.Indonesian)
		assert.Len(t, id.Actions, len(en.Actions), "category %s", c)
		assert.NotEmpty(t, en.Text)
	}
}

func TestRecommendationEngine_ActionsAreCopies(t *testing.T) {
	e := NewRecommendationEngine(domain.English)

	rec := e.Recommend(domain.Normal)
	rec.Actions[0] = "changed"

	assert.NotEqual(t, "changed", e.Recommend(domain.Normal).Actions[0])
}

func TestRecommendationEngine_UnsupportedLanguageFallsBack(t *testing.T) {
	rec := NewRecommendationEngine(domain.Language("fr")).Recommend(domain.Normal)
	assert.Equal(t, domain.English, rec.Language)
}
