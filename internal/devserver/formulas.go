package devserver

import (
	"fmt"
	"math"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"
)

// BadRequestError is a calculator input the formulas cannot work with.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

var activityMultipliers = map[calculators.ActivityLevel]float64{
	calculators.ActivitySedentary:  1.2,
	calculators.ActivityLight:      1.375,
	calculators.ActivityModerate:   1.55,
	calculators.ActivityActive:     1.725,
	calculators.ActivityVeryActive: 1.9,
}

var goalCalorieFactors = map[calculators.Goal]float64{
	calculators.GoalFatLoss:     0.8,
	calculators.GoalMaintenance: 1.0,
	calculators.GoalMuscleGain:  1.1,
}

// protein grams per kg of body weight
var goalProteinPerKg = map[calculators.Goal]float64{
	calculators.GoalFatLoss:     2.2,
	calculators.GoalMaintenance: 1.8,
	calculators.GoalMuscleGain:  2.0,
}

// Compute runs the calculator matching req and returns its result together
// with the input that gets stored next to it.
func Compute(req calculators.Request) (calculations.Result, calculations.Input, error) {
	switch r := req.(type) {
	case calculators.BMRRequest:
		return computeBMR(r)
	case calculators.TDEERequest:
		return computeTDEE(r)
	case calculators.MacrosRequest:
		return computeMacros(r)
	case calculators.BMIRequest:
		return computeBMI(r)
	case calculators.BodyCompRequest:
		return computeBodyComp(r)
	default:
		return nil, nil, badRequest("unsupported calculator request %T", req)
	}
}

func computeBMR(r calculators.BMRRequest) (calculations.Result, calculations.Input, error) {
	if err := positive("weightKg", &r.WeightKg); err != nil {
		return nil, nil, err
	}

	var bmr float64
	switch r.Equation {
	case calculators.EquationKatch:
		if r.BodyFatPercent == nil || *r.BodyFatPercent < 3 || *r.BodyFatPercent > 70 {
			return nil, nil, badRequest("bodyFatPercent between 3 and 70 required for katch")
		}
		leanMass := r.WeightKg * (1 - *r.BodyFatPercent/100)
		bmr = 370 + 21.6*leanMass
	case calculators.EquationMifflin, calculators.EquationHarris:
		if err := positive("heightCm", r.HeightCm); err != nil {
			return nil, nil, err
		}
		if r.Age == nil || *r.Age < 10 || *r.Age > 100 {
			return nil, nil, badRequest("age between 10 and 100 required")
		}
		male, err := isMale(r.Gender)
		if err != nil {
			return nil, nil, err
		}
		age := float64(*r.Age)
		if r.Equation == calculators.EquationMifflin {
			bmr = 10*r.WeightKg + 6.25*(*r.HeightCm) - 5*age
			if male {
				bmr += 5
			} else {
				bmr -= 161
			}
		} else if male {
			bmr = 88.362 + 13.397*r.WeightKg + 4.799*(*r.HeightCm) - 5.677*age
		} else {
			bmr = 447.593 + 9.247*r.WeightKg + 3.098*(*r.HeightCm) - 4.330*age
		}
	default:
		return nil, nil, badRequest("unknown equation %q", r.Equation)
	}

	input := calculations.BMRInput{
		WeightKg:       ptr(r.WeightKg),
		HeightCm:       r.HeightCm,
		Gender:         string(r.Gender),
		BodyFatPercent: r.BodyFatPercent,
		Equation:       string(r.Equation),
	}
	if r.Age != nil {
		input.Age = ptr(float64(*r.Age))
	}
	return calculations.BMRResult{BMR: math.Round(bmr), Equation: string(r.Equation)}, input, nil
}

func computeTDEE(r calculators.TDEERequest) (calculations.Result, calculations.Input, error) {
	if err := positive("bmr", &r.BMR); err != nil {
		return nil, nil, err
	}
	multiplier, ok := activityMultipliers[r.ActivityLevel]
	if !ok {
		return nil, nil, badRequest("unknown activityLevel %q", r.ActivityLevel)
	}

	return calculations.TDEEResult{TDEE: math.Round(r.BMR * multiplier)},
		calculations.TDEEInput{BMR: ptr(r.BMR), ActivityLevel: string(r.ActivityLevel)},
		nil
}

func computeMacros(r calculators.MacrosRequest) (calculations.Result, calculations.Input, error) {
	if err := positive("weightKg", &r.WeightKg); err != nil {
		return nil, nil, err
	}
	calorieFactor, ok := goalCalorieFactors[r.Goal]
	if !ok {
		return nil, nil, badRequest("unknown goal %q", r.Goal)
	}

	var tdee float64
	switch {
	case r.TDEE != nil:
		if err := positive("tdee", r.TDEE); err != nil {
			return nil, nil, err
		}
		tdee = *r.TDEE
	case r.BMR != nil:
		if err := positive("bmr", r.BMR); err != nil {
			return nil, nil, err
		}
		multiplier, ok := activityMultipliers[r.ActivityLevel]
		if !ok {
			return nil, nil, badRequest("activityLevel required together with bmr")
		}
		tdee = *r.BMR * multiplier
	default:
		return nil, nil, badRequest("tdee or bmr required")
	}

	calories := math.Round(tdee * calorieFactor)
	protein := math.Round(r.WeightKg * goalProteinPerKg[r.Goal])
	fat := math.Round(calories * 0.25 / 9)
	carbs := math.Max(0, math.Round((calories-protein*4-fat*9)/4))

	return calculations.MacrosResult{Calories: calories, Protein: protein, Carbs: carbs, Fat: fat},
		calculations.MacrosInput{
			WeightKg:      ptr(r.WeightKg),
			Goal:          string(r.Goal),
			TDEE:          r.TDEE,
			BMR:           r.BMR,
			ActivityLevel: string(r.ActivityLevel),
		},
		nil
}

func computeBMI(r calculators.BMIRequest) (calculations.Result, calculations.Input, error) {
	if err := positive("weightKg", &r.WeightKg); err != nil {
		return nil, nil, err
	}
	if err := positive("heightCm", &r.HeightCm); err != nil {
		return nil, nil, err
	}

	heightM := r.HeightCm / 100
	bmi := round1(r.WeightKg / (heightM * heightM))

	return calculations.BMIResult{BMI: bmi, Category: bmiCategory(bmi)},
		calculations.BMIInput{WeightKg: ptr(r.WeightKg), HeightCm: ptr(r.HeightCm)},
		nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

func computeBodyComp(r calculators.BodyCompRequest) (calculations.Result, calculations.Input, error) {
	if err := positive("weightKg", &r.WeightKg); err != nil {
		return nil, nil, err
	}

	var bodyFat float64
	if r.BodyFatPercent != nil {
		bodyFat = *r.BodyFatPercent
	} else {
		estimate, err := usNavyBodyFat(r)
		if err != nil {
			return nil, nil, err
		}
		bodyFat = estimate
	}
	if bodyFat < 3 || bodyFat > 70 {
		return nil, nil, badRequest("body fat %.1f%% out of range (3-70)", bodyFat)
	}

	fatMass := r.WeightKg * bodyFat / 100
	return calculations.BodyCompositionResult{
			BodyFatPercent: round1(bodyFat),
			LeanBodyMassKg: round1(r.WeightKg - fatMass),
			FatMassKg:      round1(fatMass),
		},
		calculations.BodyCompositionInput{
			WeightKg:       ptr(r.WeightKg),
			BodyFatPercent: r.BodyFatPercent,
			Gender:         string(r.Gender),
			HeightCm:       r.HeightCm,
			NeckCm:         r.NeckCm,
			WaistCm:        r.WaistCm,
			HipCm:          r.HipCm,
		},
		nil
}

func usNavyBodyFat(r calculators.BodyCompRequest) (float64, error) {
	male, err := isMale(r.Gender)
	if err != nil {
		return 0, err
	}
	if err := positive("heightCm", r.HeightCm); err != nil {
		return 0, err
	}
	if err := positive("neckCm", r.NeckCm); err != nil {
		return 0, err
	}
	if err := positive("waistCm", r.WaistCm); err != nil {
		return 0, err
	}

	if male {
		if *r.WaistCm <= *r.NeckCm {
			return 0, badRequest("waistCm must be larger than neckCm")
		}
		return 495/(1.0324-0.19077*math.Log10(*r.WaistCm-*r.NeckCm)+0.15456*math.Log10(*r.HeightCm)) - 450, nil
	}

	if err := positive("hipCm", r.HipCm); err != nil {
		return 0, err
	}
	if *r.WaistCm+*r.HipCm <= *r.NeckCm {
		return 0, badRequest("waistCm + hipCm must be larger than neckCm")
	}
	return 495/(1.29579-0.35004*math.Log10(*r.WaistCm+*r.HipCm-*r.NeckCm)+0.22100*math.Log10(*r.HeightCm)) - 450, nil
}

func isMale(g calculators.Gender) (bool, error) {
	switch g {
	case calculators.GenderMale:
		return true, nil
	case calculators.GenderFemale:
		return false, nil
	default:
		return false, badRequest("gender must be male or female")
	}
}

func positive(name string, v *float64) error {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return badRequest("%s must be a number > 0", name)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr[T any](v T) *T {
	return &v
}
