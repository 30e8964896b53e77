package calculators

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/2beens/fitcalc/internal/calculations"
)

type Field string

const (
	FieldEquation       Field = "equation"
	FieldMethod         Field = "method"
	FieldMode           Field = "mode"
	FieldWeightKg       Field = "weightKg"
	FieldHeightCm       Field = "heightCm"
	FieldAge            Field = "age"
	FieldGender         Field = "gender"
	FieldBodyFatPercent Field = "bodyFatPercent"
	FieldBMR            Field = "bmr"
	FieldTDEE           Field = "tdee"
	FieldActivityLevel  Field = "activityLevel"
	FieldGoal           Field = "goal"
	FieldNeckCm         Field = "neckCm"
	FieldWaistCm        Field = "waistCm"
	FieldHipCm          Field = "hipCm"
)

var fieldLabels = map[Field]string{
	FieldEquation:       "Equation",
	FieldMethod:         "Method",
	FieldMode:           "Mode",
	FieldWeightKg:       "Weight",
	FieldHeightCm:       "Height",
	FieldAge:            "Age",
	FieldGender:         "Gender",
	FieldBodyFatPercent: "Body fat",
	FieldBMR:            "BMR",
	FieldTDEE:           "TDEE",
	FieldActivityLevel:  "Activity level",
	FieldGoal:           "Goal",
	FieldNeckCm:         "Neck",
	FieldWaistCm:        "Waist",
	FieldHipCm:          "Hip",
}

func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Values are the raw texts of a calculator form, keyed by field. The
// discriminant (equation, method, mode) is a value like any other.
type Values map[Field]string

func (v Values) Clone() Values {
	c := make(Values, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// discriminants of the calculators that have one
var discriminants = map[calculations.Type]Field{
	calculations.TypeBMR:             FieldEquation,
	calculations.TypeMacros:          FieldMethod,
	calculations.TypeBodyComposition: FieldMode,
}

var defaultDiscriminants = map[calculations.Type]string{
	calculations.TypeBMR:             string(EquationMifflin),
	calculations.TypeMacros:          string(MacrosFromTDEE),
	calculations.TypeBodyComposition: string(BodyCompBFInput),
}

// requiredFields maps calculator and discriminant value to the fields that
// must be filled in. Calculators without a discriminant use "".
var requiredFields = map[calculations.Type]map[string][]Field{
	calculations.TypeBMR: {
		string(EquationMifflin): {FieldWeightKg, FieldHeightCm, FieldAge, FieldGender},
		string(EquationHarris):  {FieldWeightKg, FieldHeightCm, FieldAge, FieldGender},
		string(EquationKatch):   {FieldWeightKg, FieldBodyFatPercent},
	},
	calculations.TypeTDEE: {
		"": {FieldBMR, FieldActivityLevel},
	},
	calculations.TypeMacros: {
		string(MacrosFromTDEE):        {FieldWeightKg, FieldGoal, FieldTDEE},
		string(MacrosFromBMRActivity): {FieldWeightKg, FieldGoal, FieldBMR, FieldActivityLevel},
	},
	calculations.TypeBMI: {
		"": {FieldWeightKg, FieldHeightCm},
	},
	calculations.TypeBodyComposition: {
		string(BodyCompBFInput): {FieldWeightKg, FieldBodyFatPercent},
		string(BodyCompUSNavy):  {FieldWeightKg, FieldGender, FieldHeightCm, FieldNeckCm, FieldWaistCm},
	},
}

var enumValues = map[Field][]string{
	FieldGender:        enumStrings(Genders),
	FieldActivityLevel: enumStrings(ActivityLevels),
	FieldGoal:          enumStrings(Goals),
}

// Discriminant returns the field selecting the required field set of
// calcType, or "" when the calculator has none.
func Discriminant(calcType calculations.Type) Field {
	return discriminants[calcType]
}

// DefaultValues are the initial values of a new form.
func DefaultValues(calcType calculations.Type) Values {
	values := Values{}
	if f := Discriminant(calcType); f != "" {
		values[f] = defaultDiscriminants[calcType]
	}
	return values
}

// DiscriminantOptions lists the valid values of the calculator discriminant.
func DiscriminantOptions(calcType calculations.Type) []string {
	var opts []string
	for v := range requiredFields[calcType] {
		if v != "" {
			opts = append(opts, v)
		}
	}
	slices.Sort(opts)
	return opts
}

// RequiredFields returns the fields that must be valid for the current
// discriminant in values. Unknown calculators or discriminant values have
// none.
func RequiredFields(calcType calculations.Type, values Values) []Field {
	byDiscriminant, ok := requiredFields[calcType]
	if !ok {
		return nil
	}

	var discriminant string
	if f := Discriminant(calcType); f != "" {
		discriminant = strings.TrimSpace(values[f])
	}
	fields := slices.Clone(byDiscriminant[discriminant])

	// the US Navy estimate needs the hip measure for women only
	if calcType == calculations.TypeBodyComposition &&
		discriminant == string(BodyCompUSNavy) &&
		strings.TrimSpace(values[FieldGender]) == string(GenderFemale) {
		fields = append(fields, FieldHipCm)
	}
	return fields
}

// Fields lists every field a calculator form can hold, the discriminant
// first.
func Fields(calcType calculations.Type) []Field {
	var fields []Field
	if f := Discriminant(calcType); f != "" {
		fields = append(fields, f)
	}
	options := DiscriminantOptions(calcType)
	if len(options) == 0 {
		options = []string{""}
	}
	for _, opt := range options {
		for _, f := range requiredFields[calcType][opt] {
			if !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	if calcType == calculations.TypeBodyComposition {
		fields = append(fields, FieldHipCm)
	}
	return fields
}

type FieldError struct {
	Field   Field
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds at most one error per field, in field order.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, e.Error())
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

func (ve ValidationErrors) Get(field Field) (string, bool) {
	for _, e := range ve {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

func (ve ValidationErrors) Fields() []Field {
	fields := make([]Field, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field)
	}
	return fields
}

// Validate checks the required fields of values and builds the request to
// send. Only the fields required by the active discriminant end up in the
// request. The returned error is ValidationErrors.
func Validate(calcType calculations.Type, values Values) (Request, error) {
	if _, ok := requiredFields[calcType]; !ok {
		return nil, fmt.Errorf("unknown calculator %q", calcType)
	}

	var errs ValidationErrors
	if f := Discriminant(calcType); f != "" {
		if !slices.Contains(DiscriminantOptions(calcType), strings.TrimSpace(values[f])) {
			errs = append(errs, FieldError{Field: f, Message: "Select a valid option"})
			return nil, errs
		}
	}

	p := parsed{numbers: map[Field]float64{}, enums: map[Field]string{}}
	for _, field := range RequiredFields(calcType, values) {
		if msg := p.parse(field, values[field]); msg != "" {
			errs = append(errs, FieldError{Field: field, Message: msg})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return p.request(calcType, strings.TrimSpace(values[Discriminant(calcType)])), nil
}

type parsed struct {
	numbers map[Field]float64
	enums   map[Field]string
}

// parse returns a user facing message when raw is not acceptable for field.
func (p parsed) parse(field Field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return field.Label() + " is required"
	}

	if allowed, ok := enumValues[field]; ok {
		if !slices.Contains(allowed, raw) {
			return "Select a valid option"
		}
		p.enums[field] = raw
		return ""
	}

	n, ok := ParseNumber(raw)
	if !ok {
		return "Enter a valid number > 0"
	}
	if n <= 0 {
		return "Must be > 0"
	}

	switch field {
	case FieldBodyFatPercent:
		if n < 3 || n > 70 {
			return "Unrealistic BF% (3-70)"
		}
	case FieldAge:
		if n != math.Trunc(n) {
			return "Age must be a whole number"
		}
		if n < 10 || n > 100 {
			return "Age must be between 10 and 100"
		}
	}

	p.numbers[field] = n
	return ""
}

func (p parsed) num(field Field) *float64 {
	n, ok := p.numbers[field]
	if !ok {
		return nil
	}
	return &n
}

func (p parsed) request(calcType calculations.Type, discriminant string) Request {
	switch calcType {
	case calculations.TypeBMR:
		req := BMRRequest{
			WeightKg:       p.numbers[FieldWeightKg],
			HeightCm:       p.num(FieldHeightCm),
			Gender:         Gender(p.enums[FieldGender]),
			BodyFatPercent: p.num(FieldBodyFatPercent),
			Equation:       Equation(discriminant),
		}
		if age := p.num(FieldAge); age != nil {
			years := int(*age)
			req.Age = &years
		}
		return req
	case calculations.TypeTDEE:
		return TDEERequest{
			BMR:           p.numbers[FieldBMR],
			ActivityLevel: ActivityLevel(p.enums[FieldActivityLevel]),
		}
	case calculations.TypeMacros:
		return MacrosRequest{
			WeightKg:      p.numbers[FieldWeightKg],
			Goal:          Goal(p.enums[FieldGoal]),
			TDEE:          p.num(FieldTDEE),
			BMR:           p.num(FieldBMR),
			ActivityLevel: ActivityLevel(p.enums[FieldActivityLevel]),
		}
	case calculations.TypeBMI:
		return BMIRequest{
			WeightKg: p.numbers[FieldWeightKg],
			HeightCm: p.numbers[FieldHeightCm],
		}
	default:
		return BodyCompRequest{
			WeightKg:       p.numbers[FieldWeightKg],
			BodyFatPercent: p.num(FieldBodyFatPercent),
			Gender:         Gender(p.enums[FieldGender]),
			HeightCm:       p.num(FieldHeightCm),
			NeckCm:         p.num(FieldNeckCm),
			WaistCm:        p.num(FieldWaistCm),
			HipCm:          p.num(FieldHipCm),
		}
	}
}

var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses a finite decimal, accepting a comma as the decimal
// separator. Hex and other prefixed forms are not numbers here.
func ParseNumber(raw string) (float64, bool) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func enumStrings[E ~string](values []E) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
