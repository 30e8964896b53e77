package calculators

import (
	"github.com/2beens/fitcalc/internal/calculations"
)

const (
	EndpointBMR      = "bmr"
	EndpointTDEE     = "tdee"
	EndpointMacros   = "macros"
	EndpointBMI      = "bmi"
	EndpointBodyComp = "lbm-fatmass"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Equation string

const (
	EquationMifflin Equation = "mifflin"
	EquationHarris  Equation = "harris"
	EquationKatch   Equation = "katch"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

type Goal string

const (
	GoalFatLoss     Goal = "fatLoss"
	GoalMaintenance Goal = "maintenance"
	GoalMuscleGain  Goal = "muscleGain"
)

type MacrosMethod string

const (
	MacrosFromTDEE        MacrosMethod = "tdee"
	MacrosFromBMRActivity MacrosMethod = "bmr+activity"
)

type BodyCompMode string

const (
	BodyCompBFInput BodyCompMode = "bfInput"
	BodyCompUSNavy  BodyCompMode = "usNavy"
)

var (
	Genders        = []Gender{GenderMale, GenderFemale}
	Equations      = []Equation{EquationMifflin, EquationHarris, EquationKatch}
	ActivityLevels = []ActivityLevel{ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive}
	Goals          = []Goal{GoalFatLoss, GoalMaintenance, GoalMuscleGain}
	MacrosMethods  = []MacrosMethod{MacrosFromTDEE, MacrosFromBMRActivity}
	BodyCompModes  = []BodyCompMode{BodyCompBFInput, BodyCompUSNavy}
)

// Request is one of BMRRequest, TDEERequest, MacrosRequest, BMIRequest,
// BodyCompRequest.
type Request interface {
	CalculationType() calculations.Type
	Endpoint() string
	withUserID(userID string) Request
}

type BMRRequest struct {
	UserID         string   `json:"userId"`
	WeightKg       float64  `json:"weightKg"`
	HeightCm       *float64 `json:"heightCm,omitempty"`
	Age            *int     `json:"age,omitempty"`
	Gender         Gender   `json:"gender,omitempty"`
	BodyFatPercent *float64 `json:"bodyFatPercent,omitempty"`
	Equation       Equation `json:"equation"`
}

type TDEERequest struct {
	UserID        string        `json:"userId"`
	BMR           float64       `json:"bmr"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
}

// MacrosRequest carries either TDEE, or BMR together with ActivityLevel.
type MacrosRequest struct {
	UserID        string        `json:"userId"`
	WeightKg      float64       `json:"weightKg"`
	Goal          Goal          `json:"goal"`
	TDEE          *float64      `json:"tdee,omitempty"`
	BMR           *float64      `json:"bmr,omitempty"`
	ActivityLevel ActivityLevel `json:"activityLevel,omitempty"`
}

type BMIRequest struct {
	UserID   string  `json:"userId"`
	WeightKg float64 `json:"weightKg"`
	HeightCm float64 `json:"heightCm"`
}

// BodyCompRequest without BodyFatPercent asks for the US Navy estimate,
// which needs gender, height, neck and waist (and hip for women).
type BodyCompRequest struct {
	UserID         string   `json:"userId"`
	WeightKg       float64  `json:"weightKg"`
	BodyFatPercent *float64 `json:"bodyFatPercent,omitempty"`
	Gender         Gender   `json:"gender,omitempty"`
	HeightCm       *float64 `json:"heightCm,omitempty"`
	NeckCm         *float64 `json:"neckCm,omitempty"`
	WaistCm        *float64 `json:"waistCm,omitempty"`
	HipCm          *float64 `json:"hipCm,omitempty"`
}

func (BMRRequest) CalculationType() calculations.Type      { return calculations.TypeBMR }
func (TDEERequest) CalculationType() calculations.Type     { return calculations.TypeTDEE }
func (MacrosRequest) CalculationType() calculations.Type   { return calculations.TypeMacros }
func (BMIRequest) CalculationType() calculations.Type      { return calculations.TypeBMI }
func (BodyCompRequest) CalculationType() calculations.Type { return calculations.TypeBodyComposition }

func (BMRRequest) Endpoint() string      { return EndpointBMR }
func (TDEERequest) Endpoint() string     { return EndpointTDEE }
func (MacrosRequest) Endpoint() string   { return EndpointMacros }
func (BMIRequest) Endpoint() string      { return EndpointBMI }
func (BodyCompRequest) Endpoint() string { return EndpointBodyComp }

func (r BMRRequest) withUserID(userID string) Request {
	r.UserID = userID
	return r
}

func (r TDEERequest) withUserID(userID string) Request {
	r.UserID = userID
	return r
}

func (r MacrosRequest) withUserID(userID string) Request {
	r.UserID = userID
	return r
}

func (r BMIRequest) withUserID(userID string) Request {
	r.UserID = userID
	return r
}

func (r BodyCompRequest) withUserID(userID string) Request {
	r.UserID = userID
	return r
}

// Responses have the shape of the stored calculation results.
type (
	BMRResponse      = calculations.BMRResult
	TDEEResponse     = calculations.TDEEResult
	MacrosResponse   = calculations.MacrosResult
	BMIResponse      = calculations.BMIResult
	BodyCompResponse = calculations.BodyCompositionResult
)
