package calculations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// wireCalculation is a record as the remote functions return it.
type wireCalculation struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	UserIDAlt string          `json:"user_id,omitempty"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Result    json.RawMessage `json:"result_json"`
	Input     json.RawMessage `json:"input_json"`
	Goal      *string         `json:"goal"`
}

// MalformedRecordError is returned for a record whose payload does not match
// its declared type. Such records are never coerced.
type MalformedRecordError struct {
	ID     string
	Type   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed calculation record [id: %s, type: %s]: %s", e.ID, e.Type, e.Reason)
}

// Decode validates a raw record and turns it into a Calculation.
func Decode(raw json.RawMessage) (Calculation, error) {
	var w wireCalculation
	if err := json.Unmarshal(raw, &w); err != nil {
		return Calculation{}, &MalformedRecordError{Reason: err.Error()}
	}
	malformed := func(format string, args ...any) error {
		return &MalformedRecordError{ID: w.ID, Type: w.Type, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(w.ID) == "" {
		return Calculation{}, malformed("missing id")
	}
	calcType, err := ParseType(w.Type)
	if err != nil {
		return Calculation{}, malformed("%s", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Calculation{}, malformed("invalid created_at %q", w.CreatedAt)
	}

	result, err := decodeResult(calcType, w.Result)
	if err != nil {
		return Calculation{}, malformed("result_json: %s", err)
	}
	input, err := decodeInput(calcType, w.Input)
	if err != nil {
		return Calculation{}, malformed("input_json: %s", err)
	}

	userID := w.UserID
	if userID == "" {
		userID = w.UserIDAlt
	}

	return Calculation{
		ID:        w.ID,
		UserID:    userID,
		Type:      calcType,
		CreatedAt: createdAt.UTC(),
		Result:    result,
		Input:     input,
		Goal:      w.Goal,
	}, nil
}

// DecodeList decodes every record it can. Malformed ones are left out and
// reported in the second return value, they never fail the whole list.
func DecodeList(raws []json.RawMessage) ([]Calculation, []error) {
	calcs := make([]Calculation, 0, len(raws))
	var malformed []error
	for _, raw := range raws {
		c, err := Decode(raw)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		calcs = append(calcs, c)
	}
	return calcs, malformed
}

// SortNewestFirst orders by creation time descending, ties by id.
func SortNewestFirst(calcs []Calculation) {
	sort.SliceStable(calcs, func(i, j int) bool {
		if !calcs[i].CreatedAt.Equal(calcs[j].CreatedAt) {
			return calcs[i].CreatedAt.After(calcs[j].CreatedAt)
		}
		return calcs[i].ID < calcs[j].ID
	})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func requireNumber(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%s is not a finite number", name)
	}
	return *v, nil
}

// Field names each type writes. A key known only to other types means the
// payload was stored under the wrong type.
var (
	resultFields = map[Type][]string{
		TypeBMR:             {"bmr", "equation"},
		TypeTDEE:            {"tdee"},
		TypeMacros:          {"calories", "protein", "carbs", "fat"},
		TypeBMI:             {"bmi", "category"},
		TypeBodyComposition: {"bodyFatPercent", "leanBodyMassKg", "fatMassKg"},
	}
	inputFields = map[Type][]string{
		TypeBMR:             {"weightKg", "heightCm", "age", "gender", "bodyFatPercent", "equation"},
		TypeTDEE:            {"bmr", "activityLevel"},
		TypeMacros:          {"weightKg", "goal", "tdee", "bmr", "activityLevel"},
		TypeBMI:             {"weightKg", "heightCm"},
		TypeBodyComposition: {"weightKg", "bodyFatPercent", "gender", "heightCm", "neckCm", "waistCm", "hipCm"},
	}
)

// rejectForeignFields fails on a key that t never writes but another type
// does. Keys no type knows (legacy form values) pass.
func rejectForeignFields(t Type, raw json.RawMessage, fields map[Type][]string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}

	own := make(map[string]bool, len(fields[t]))
	for _, name := range fields[t] {
		own[name] = true
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if own[key] {
			continue
		}
		for _, other := range AllTypes {
			if other == t {
				continue
			}
			for _, name := range fields[other] {
				if name == key {
					return fmt.Errorf("field %q belongs to %s, not %s", key, other, t)
				}
			}
		}
	}
	return nil
}

func decodeResult(t Type, raw json.RawMessage) (Result, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("missing")
	}
	if err := rejectForeignFields(t, raw, resultFields); err != nil {
		return nil, err
	}

	switch t {
	case TypeBMR:
		var w struct {
			BMR      *float64 `json:"bmr"`
			Equation string   `json:"equation"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		bmr, err := requireNumber("bmr", w.BMR)
		if err != nil {
			return nil, err
		}
		return BMRResult{BMR: bmr, Equation: w.Equation}, nil
	case TypeTDEE:
		var w struct {
			TDEE *float64 `json:"tdee"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		tdee, err := requireNumber("tdee", w.TDEE)
		if err != nil {
			return nil, err
		}
		return TDEEResult{TDEE: tdee}, nil
	case TypeMacros:
		var w struct {
			Calories *float64 `json:"calories"`
			Protein  *float64 `json:"protein"`
			Carbs    *float64 `json:"carbs"`
			Fat      *float64 `json:"fat"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		var res MacrosResult
		var err error
		if res.Calories, err = requireNumber("calories", w.Calories); err != nil {
			return nil, err
		}
		if res.Protein, err = requireNumber("protein", w.Protein); err != nil {
			return nil, err
		}
		if res.Carbs, err = requireNumber("carbs", w.Carbs); err != nil {
			return nil, err
		}
		if res.Fat, err = requireNumber("fat", w.Fat); err != nil {
			return nil, err
		}
		return res, nil
	case TypeBMI:
		var w struct {
			BMI      *float64 `json:"bmi"`
			Category string   `json:"category"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		bmi, err := requireNumber("bmi", w.BMI)
		if err != nil {
			return nil, err
		}
		return BMIResult{BMI: bmi, Category: w.Category}, nil
	case TypeBodyComposition:
		var w struct {
			BodyFatPercent *float64 `json:"bodyFatPercent"`
			LeanBodyMassKg *float64 `json:"leanBodyMassKg"`
			FatMassKg      *float64 `json:"fatMassKg"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		var res BodyCompositionResult
		var err error
		if res.BodyFatPercent, err = requireNumber("bodyFatPercent", w.BodyFatPercent); err != nil {
			return nil, err
		}
		if res.LeanBodyMassKg, err = requireNumber("leanBodyMassKg", w.LeanBodyMassKg); err != nil {
			return nil, err
		}
		if res.FatMassKg, err = requireNumber("fatMassKg", w.FatMassKg); err != nil {
			return nil, err
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// decodeInput is lenient about missing fields (older records carry fewer
// inputs) but not about their types, nor about fields of another type.
func decodeInput(t Type, raw json.RawMessage) (Input, error) {
	if isNull(raw) {
		raw = json.RawMessage(`{}`)
	}
	if err := rejectForeignFields(t, raw, inputFields); err != nil {
		return nil, err
	}

	switch t {
	case TypeBMR:
		var in BMRInput
		err := json.Unmarshal(raw, &in)
		return in, err
	case TypeTDEE:
		var in TDEEInput
		err := json.Unmarshal(raw, &in)
		return in, err
	case TypeMacros:
		var in MacrosInput
		err := json.Unmarshal(raw, &in)
		return in, err
	case TypeBMI:
		var in BMIInput
		err := json.Unmarshal(raw, &in)
		return in, err
	case TypeBodyComposition:
		var in BodyCompositionInput
		err := json.Unmarshal(raw, &in)
		return in, err
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}
