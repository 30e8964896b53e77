package calculations

import (
	"fmt"
	"strconv"
)

// Summary is the one line shown for a record in history lists.
func Summary(c Calculation) string {
	switch res := c.Result.(type) {
	case BMRResult:
		return "BMR: " + formatNumber(res.BMR)
	case TDEEResult:
		return "TDEE: " + formatNumber(res.TDEE) + " kcal"
	case MacrosResult:
		return fmt.Sprintf("%s kcal  P: %sg  C: %sg  F: %sg",
			formatNumber(res.Calories),
			formatNumber(res.Protein),
			formatNumber(res.Carbs),
			formatNumber(res.Fat),
		)
	case BMIResult:
		if res.Category == "" {
			return "BMI: " + formatNumber(res.BMI)
		}
		return fmt.Sprintf("BMI: %s (%s)", formatNumber(res.BMI), res.Category)
	case BodyCompositionResult:
		return fmt.Sprintf("BF: %s%%  LBM: %skg", formatNumber(res.BodyFatPercent), formatNumber(res.LeanBodyMassKg))
	default:
		return "-"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
