package service

import (
	"strings"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// GuidelineSource is the body whose guidance the engine renders.
const GuidelineSource = "POGI"

type guidance struct {
	title   string
	actions []string
}

var severeGuidance = map[domain.Language]guidance{
	domain.English: {
		title: "Severe preeclampsia management",
		actions: []string{
			"Immediate hospital admission",
			"Magnesium sulfate (MgSO₄) for seizure prophylaxis",
			"Active antihypertensive therapy (labetalol, nifedipine)",
			"Evaluate termination of pregnancy",
			"Fetal growth ultrasound",
			"Referral to a type A (tertiary) hospital",
		},
	},
	domain.Indonesian: {
		title: "Penanganan preeklampsia berat",
		actions: []string{
			"Rawat inap segera",
			"Pemberian MgSO₄ untuk pencegahan kejang",
			"Antihipertensi aktif (labetalol, nifedipin)",
			"Evaluasi terminasi kehamilan",
			"USG pertumbuhan janin",
			"Rujukan ke RS tipe A",
		},
	},
}

var mildGuidance = map[domain.Language]guidance{
	domain.English: {
		title: "Mild preeclampsia management",
		actions: []string{
			"Periodic observation of blood pressure and urine protein",
			"Calcium supplementation 1 g/day",
			"Low-dose aspirin (before 16 weeks of gestation when indicated)",
			"Evaluate subjective symptoms (headache, visual disturbance)",
		},
	},
	domain.Indonesian: {
		title: "Penanganan preeklampsia ringan",
		actions: []string{
			"Observasi tekanan darah dan protein urin secara berkala",
			"Suplementasi kalsium 1 g/hari",
			"Aspirin dosis rendah (<16 minggu kehamilan jika perlu)",
			"Evaluasi gejala subjektif (nyeri kepala, visus)",
		},
	},
}

var normalGuidance = map[domain.Language]guidance{
	domain.English: {
		title: "Routine antenatal care",
		actions: []string{
			"Routine antenatal care according to trimester",
			"Educate the mother on preeclampsia danger signs",
			"Monitor blood pressure and urine at every visit",
		},
	},
	domain.Indonesian: {
		title: "Asuhan antenatal rutin",
		actions: []string{
			"ANC rutin sesuai trimester",
			"Edukasi ibu mengenai tanda bahaya preeklampsia",
			"Monitor tekanan darah dan urin tiap kunjungan",
		},
	},
}

var unrecognizedMessage = map[domain.Language]string{
	domain.English:    "Category not recognized.",
	domain.Indonesian: "Kategori tidak dikenali.",
}

// RecommendationEngine renders management guidance for a category.
type RecommendationEngine struct {
	language domain.Language
}

// NewRecommendationEngine creates an engine with a default language.
func NewRecommendationEngine(language domain.Language) *RecommendationEngine {
	if language != domain.Indonesian {
		language = domain.English
	}
	return &RecommendationEngine{language: language}
}

// Recommend returns guidance in the engine's default language.
func (e *RecommendationEngine) Recommend(category domain.DiagnosisCategory) domain.Recommendation {
	return e.RecommendIn(category, e.language)
}

// RecommendIn returns guidance in lang, falling back to English for
// unsupported languages.
func (e *RecommendationEngine) RecommendIn(category domain.DiagnosisCategory, lang domain.Language) domain.Recommendation {
	if lang != domain.Indonesian {
		lang = domain.English
	}

	var g guidance
	switch category {
	case domain.SeverePreeclampsia:
		g = severeGuidance[lang]
	case domain.MildPreeclampsia:
		g = mildGuidance[lang]
	case domain.Normal:
		g = normalGuidance[lang]
	default:
		// domain.Unrecognized and values outside the enum.
		return domain.Recommendation{
			Category: domain.Unrecognized,
			Title:    localLabel(domain.Unrecognized, lang),
			Text:     unrecognizedMessage[lang],
			Source:   GuidelineSource,
			Language: lang,
		}
	}

	actions := append([]string(nil), g.actions...)
	return domain.Recommendation{
		Category: category,
		Title:    g.title,
		Actions:  actions,
		Text:     "- " + strings.Join(actions, "\n- "),
		Source:   GuidelineSource,
		Language: lang,
	}
}

func localLabel(c domain.DiagnosisCategory, lang domain.Language) string {
	if lang == domain.Indonesian {
		return c.LocalLabel()
	}
	return c.Label()
}
