package calculations

import (
	"encoding/json"
	"time"
)

// Calculation is a persisted result of one calculator submission. Result and
// Input always hold the variant that matches Type.
type Calculation struct {
	ID        string
	UserID    string
	Type      Type
	CreatedAt time.Time
	Result    Result
	Input     Input
	Goal      *string
}

// Result is one of BMRResult, TDEEResult, MacrosResult, BMIResult,
// BodyCompositionResult.
type Result interface {
	CalculationType() Type
	isResult()
}

// Input is one of BMRInput, TDEEInput, MacrosInput, BMIInput,
// BodyCompositionInput.
type Input interface {
	CalculationType() Type
	isInput()
}

type BMRResult struct {
	BMR      float64 `json:"bmr"`
	Equation string  `json:"equation,omitempty"`
}

type TDEEResult struct {
	TDEE float64 `json:"tdee"`
}

type MacrosResult struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type BMIResult struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category,omitempty"`
}

type BodyCompositionResult struct {
	BodyFatPercent float64 `json:"bodyFatPercent"`
	LeanBodyMassKg float64 `json:"leanBodyMassKg"`
	FatMassKg      float64 `json:"fatMassKg"`
}

func (BMRResult) CalculationType() Type             { return TypeBMR }
func (TDEEResult) CalculationType() Type            { return TypeTDEE }
func (MacrosResult) CalculationType() Type          { return TypeMacros }
func (BMIResult) CalculationType() Type             { return TypeBMI }
func (BodyCompositionResult) CalculationType() Type { return TypeBodyComposition }

func (BMRResult) isResult()             {}
func (TDEEResult) isResult()            {}
func (MacrosResult) isResult()          {}
func (BMIResult) isResult()             {}
func (BodyCompositionResult) isResult() {}

type BMRInput struct {
	WeightKg       *float64 `json:"weightKg,omitempty"`
	HeightCm       *float64 `json:"heightCm,omitempty"`
	Age            *float64 `json:"age,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	BodyFatPercent *float64 `json:"bodyFatPercent,omitempty"`
	Equation       string   `json:"equation,omitempty"`
}

type TDEEInput struct {
	BMR           *float64 `json:"bmr,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
}

type MacrosInput struct {
	WeightKg      *float64 `json:"weightKg,omitempty"`
	Goal          string   `json:"goal,omitempty"`
	TDEE          *float64 `json:"tdee,omitempty"`
	BMR           *float64 `json:"bmr,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
}

type BMIInput struct {
	WeightKg *float64 `json:"weightKg,omitempty"`
	HeightCm *float64 `json:"heightCm,omitempty"`
}

type BodyCompositionInput struct {
	WeightKg       *float64 `json:"weightKg,omitempty"`
	BodyFatPercent *float64 `json:"bodyFatPercent,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	HeightCm       *float64 `json:"heightCm,omitempty"`
	NeckCm         *float64 `json:"neckCm,omitempty"`
	WaistCm        *float64 `json:"waistCm,omitempty"`
	HipCm          *float64 `json:"hipCm,omitempty"`
}

func (BMRInput) CalculationType() Type             { return TypeBMR }
func (TDEEInput) CalculationType() Type            { return TypeTDEE }
func (MacrosInput) CalculationType() Type          { return TypeMacros }
func (BMIInput) CalculationType() Type             { return TypeBMI }
func (BodyCompositionInput) CalculationType() Type { return TypeBodyComposition }

func (BMRInput) isInput()             {}
func (TDEEInput) isInput()            {}
func (MacrosInput) isInput()          {}
func (BMIInput) isInput()             {}
func (BodyCompositionInput) isInput() {}

// MarshalJSON renders the record in its wire shape.
func (c Calculation) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCalculation{
		ID:        c.ID,
		UserID:    c.UserID,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		Result:    mustMarshal(c.Result),
		Input:     mustMarshal(c.Input),
		Goal:      c.Goal,
	})
}

func mustMarshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
