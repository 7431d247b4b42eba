package features

import "github.com/preeclampsia-risk-mcp/internal/domain"

// EncodeUrineProtein maps the dipstick grade to its ordinal:
//
//	'0'  -> 0
//	'+1' -> 1
//	'+2' -> 2
//	'+3' -> 3
//	'+4' -> 4
func EncodeUrineProtein(g domain.UrineProteinGrade) float64 {
	return float64(g)
}

// EncodeFlag encodes yes/no history answers: "Ya" (true) -> 1, "Tidak" (false) -> 0.
func EncodeFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// EncodeAnswer encodes a raw form answer ("Ya"/"Tidak") directly.
func EncodeAnswer(answer string) (float64, error) {
	b, err := domain.ParseYesNo(answer)
	if err != nil {
		return 0, err
	}
	return EncodeFlag(b), nil
}
