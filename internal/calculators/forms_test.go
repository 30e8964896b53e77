package calculators_test

import (
	"errors"
	"testing"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFieldErrors(t *testing.T, err error, fields ...calculators.Field) calculators.ValidationErrors {
	t.Helper()
	var verrs calculators.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	assert.ElementsMatch(t, fields, verrs.Fields())
	return verrs
}

func TestValidate_BMR(t *testing.T) {
	t.Run("katch needs body fat, not height age gender", func(t *testing.T) {
		_, err := calculators.Validate(calculations.TypeBMR, calculators.Values{
			calculators.FieldEquation: "katch",
			calculators.FieldWeightKg: "80",
			calculators.FieldHeightCm: "180",
			calculators.FieldAge:      "30",
			calculators.FieldGender:   "male",
		})
		requireFieldErrors(t, err, calculators.FieldBodyFatPercent)

		req, err := calculators.Validate(calculations.TypeBMR, calculators.Values{
			calculators.FieldEquation:       "katch",
			calculators.FieldWeightKg:       "80",
			calculators.FieldBodyFatPercent: "15",
		})
		require.NoError(t, err)
		bmr, ok := req.(calculators.BMRRequest)
		require.True(t, ok)
		assert.Equal(t, calculators.EquationKatch, bmr.Equation)
		assert.Equal(t, 80.0, bmr.WeightKg)
		require.NotNil(t, bmr.BodyFatPercent)
		assert.Equal(t, 15.0, *bmr.BodyFatPercent)
		assert.Nil(t, bmr.HeightCm)
		assert.Nil(t, bmr.Age)
		assert.Empty(t, bmr.Gender)
	})

	t.Run("mifflin is the inverse", func(t *testing.T) {
		_, err := calculators.Validate(calculations.TypeBMR, calculators.Values{
			calculators.FieldEquation:       "mifflin",
			calculators.FieldWeightKg:       "80",
			calculators.FieldBodyFatPercent: "15",
		})
		requireFieldErrors(t, err, calculators.FieldHeightCm, calculators.FieldAge, calculators.FieldGender)

		req, err := calculators.Validate(calculations.TypeBMR, calculators.Values{
			calculators.FieldEquation: "mifflin",
			calculators.FieldWeightKg: "80",
			calculators.FieldHeightCm: "180",
			calculators.FieldAge:      "30",
			calculators.FieldGender:   "male",
		})
		require.NoError(t, err)
		bmr := req.(calculators.BMRRequest)
		require.NotNil(t, bmr.Age)
		assert.Equal(t, 30, *bmr.Age)
		assert.Equal(t, calculators.GenderMale, bmr.Gender)
		assert.Nil(t, bmr.BodyFatPercent)
		assert.Equal(t, calculators.EndpointBMR, req.Endpoint())
	})

	t.Run("unknown equation", func(t *testing.T) {
		_, err := calculators.Validate(calculations.TypeBMR, calculators.Values{
			calculators.FieldEquation: "cunningham",
		})
		requireFieldErrors(t, err, calculators.FieldEquation)
	})
}

func TestValidate_NumericPolicy(t *testing.T) {
	base := func(field calculators.Field, value string) calculators.Values {
		v := calculators.Values{
			calculators.FieldEquation: "mifflin",
			calculators.FieldWeightKg: "80",
			calculators.FieldHeightCm: "180",
			calculators.FieldAge:      "30",
			calculators.FieldGender:   "female",
		}
		v[field] = value
		return v
	}

	cases := []struct {
		name    string
		field   calculators.Field
		value   string
		wantErr string
	}{
		{name: "comma decimal", field: calculators.FieldWeightKg, value: "80,5"},
		{name: "spaces", field: calculators.FieldHeightCm, value: " 180 "},
		{name: "empty", field: calculators.FieldWeightKg, value: "", wantErr: "Weight is required"},
		{name: "not a number", field: calculators.FieldWeightKg, value: "eighty", wantErr: "Enter a valid number > 0"},
		{name: "nan", field: calculators.FieldWeightKg, value: "NaN", wantErr: "Enter a valid number > 0"},
		{name: "infinite", field: calculators.FieldHeightCm, value: "Inf", wantErr: "Enter a valid number > 0"},
		{name: "hex", field: calculators.FieldWeightKg, value: "0x50", wantErr: "Enter a valid number > 0"},
		{name: "hex float", field: calculators.FieldHeightCm, value: "0x1.68p7", wantErr: "Enter a valid number > 0"},
		{name: "underscores", field: calculators.FieldWeightKg, value: "8_0", wantErr: "Enter a valid number > 0"},
		{name: "zero", field: calculators.FieldHeightCm, value: "0", wantErr: "Must be > 0"},
		{name: "negative", field: calculators.FieldWeightKg, value: "-3", wantErr: "Must be > 0"},
		{name: "fractional age", field: calculators.FieldAge, value: "30,5", wantErr: "Age must be a whole number"},
		{name: "too young", field: calculators.FieldAge, value: "9", wantErr: "Age must be between 10 and 100"},
		{name: "too old", field: calculators.FieldAge, value: "101", wantErr: "Age must be between 10 and 100"},
		{name: "age bounds", field: calculators.FieldAge, value: "100"},
		{name: "bad gender", field: calculators.FieldGender, value: "other", wantErr: "Select a valid option"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calculators.Validate(calculations.TypeBMR, base(tc.field, tc.value))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			verrs := requireFieldErrors(t, err, tc.field)
			msg, ok := verrs.Get(tc.field)
			require.True(t, ok)
			assert.Equal(t, tc.wantErr, msg)
		})
	}

	req, err := calculators.Validate(calculations.TypeBMR, base(calculators.FieldWeightKg, "80,5"))
	require.NoError(t, err)
	assert.Equal(t, 80.5, req.(calculators.BMRRequest).WeightKg)
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]float64{
		"80":    80,
		"80.5":  80.5,
		"80,5":  80.5,
		".5":    0.5,
		"5.":    5,
		"-3":    -3,
		"1e2":   100,
		" 180 ": 180,
	} {
		got, ok := calculators.ParseNumber(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"0x10", "0X10", "0x1p4", "0b101", "0o17", "1_000", "80,5,1", "NaN", "Inf", "", "."} {
		_, ok := calculators.ParseNumber(raw)
		assert.False(t, ok, raw)
	}
}

func TestValidate_BodyFatBounds(t *testing.T) {
	for value, valid := range map[string]bool{"2.9": false, "3": true, "70": true, "70,1": false} {
		_, err := calculators.Validate(calculations.TypeBodyComposition, calculators.Values{
			calculators.FieldMode:           "bfInput",
			calculators.FieldWeightKg:       "80",
			calculators.FieldBodyFatPercent: value,
		})
		assert.Equal(t, valid, err == nil, "body fat %s", value)
	}
}

func TestValidate_BodyComposition(t *testing.T) {
	navy := func(gender string) calculators.Values {
		return calculators.Values{
			calculators.FieldMode:     "usNavy",
			calculators.FieldWeightKg: "70",
			calculators.FieldGender:   gender,
			calculators.FieldHeightCm: "170",
			calculators.FieldNeckCm:   "34",
			calculators.FieldWaistCm:  "75",
		}
	}

	_, err := calculators.Validate(calculations.TypeBodyComposition, navy("female"))
	requireFieldErrors(t, err, calculators.FieldHipCm)

	req, err := calculators.Validate(calculations.TypeBodyComposition, navy("male"))
	require.NoError(t, err)
	bc := req.(calculators.BodyCompRequest)
	assert.Nil(t, bc.HipCm)
	assert.Nil(t, bc.BodyFatPercent)
	require.NotNil(t, bc.NeckCm)
	assert.Equal(t, 34.0, *bc.NeckCm)

	withHip := navy("female")
	withHip[calculators.FieldHipCm] = "98"
	req, err = calculators.Validate(calculations.TypeBodyComposition, withHip)
	require.NoError(t, err)
	require.NotNil(t, req.(calculators.BodyCompRequest).HipCm)

	// measurements are ignored when body fat is known
	direct := navy("female")
	direct[calculators.FieldMode] = "bfInput"
	direct[calculators.FieldBodyFatPercent] = "22"
	req, err = calculators.Validate(calculations.TypeBodyComposition, direct)
	require.NoError(t, err)
	bc = req.(calculators.BodyCompRequest)
	assert.Nil(t, bc.NeckCm)
	assert.Empty(t, bc.Gender)
	assert.Equal(t, calculators.EndpointBodyComp, req.Endpoint())
}

func TestValidate_Macros(t *testing.T) {
	req, err := calculators.Validate(calculations.TypeMacros, calculators.Values{
		calculators.FieldMethod:   "tdee",
		calculators.FieldWeightKg: "80",
		calculators.FieldGoal:     "fatLoss",
		calculators.FieldTDEE:     "2600",
		calculators.FieldBMR:      "1800",
	})
	require.NoError(t, err)
	macros := req.(calculators.MacrosRequest)
	require.NotNil(t, macros.TDEE)
	assert.Nil(t, macros.BMR)
	assert.Equal(t, calculators.GoalFatLoss, macros.Goal)

	_, err = calculators.Validate(calculations.TypeMacros, calculators.Values{
		calculators.FieldMethod:   "bmr+activity",
		calculators.FieldWeightKg: "80",
		calculators.FieldGoal:     "bulk",
		calculators.FieldBMR:      "1800",
	})
	requireFieldErrors(t, err, calculators.FieldGoal, calculators.FieldActivityLevel)
}

func TestValidate_TDEEAndBMI(t *testing.T) {
	req, err := calculators.Validate(calculations.TypeTDEE, calculators.Values{
		calculators.FieldBMR:           "1780",
		calculators.FieldActivityLevel: "very_active",
	})
	require.NoError(t, err)
	assert.Equal(t, calculators.TDEERequest{BMR: 1780, ActivityLevel: calculators.ActivityVeryActive}, req)

	_, err = calculators.Validate(calculations.TypeTDEE, calculators.Values{
		calculators.FieldBMR:           "1780",
		calculators.FieldActivityLevel: "extreme",
	})
	requireFieldErrors(t, err, calculators.FieldActivityLevel)

	_, err = calculators.Validate(calculations.TypeBMI, calculators.Values{calculators.FieldWeightKg: "80"})
	requireFieldErrors(t, err, calculators.FieldHeightCm)

	_, err = calculators.Validate("Other", calculators.Values{})
	require.Error(t, err)
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t,
		[]calculators.Field{calculators.FieldWeightKg, calculators.FieldHeightCm, calculators.FieldAge, calculators.FieldGender},
		calculators.RequiredFields(calculations.TypeBMR, calculators.DefaultValues(calculations.TypeBMR)),
	)
	assert.Equal(t,
		[]calculators.Field{calculators.FieldWeightKg, calculators.FieldBodyFatPercent},
		calculators.RequiredFields(calculations.TypeBodyComposition, calculators.DefaultValues(calculations.TypeBodyComposition)),
	)
	assert.Empty(t, calculators.RequiredFields(calculations.TypeBMR, calculators.Values{calculators.FieldEquation: "unknown"}))
	assert.Equal(t, calculators.Field(""), calculators.Discriminant(calculations.TypeBMI))
	assert.Equal(t, []string{"bmr+activity", "tdee"}, calculators.DiscriminantOptions(calculations.TypeMacros))
}

func TestFields(t *testing.T) {
	assert.Equal(t,
		[]calculators.Field{
			calculators.FieldEquation, calculators.FieldWeightKg, calculators.FieldHeightCm,
			calculators.FieldAge, calculators.FieldGender, calculators.FieldBodyFatPercent,
		},
		calculators.Fields(calculations.TypeBMR),
	)
	assert.Equal(t,
		[]calculators.Field{calculators.FieldBMR, calculators.FieldActivityLevel},
		calculators.Fields(calculations.TypeTDEE),
	)
	assert.Equal(t,
		[]calculators.Field{
			calculators.FieldMode, calculators.FieldWeightKg, calculators.FieldBodyFatPercent,
			calculators.FieldGender, calculators.FieldHeightCm, calculators.FieldNeckCm,
			calculators.FieldWaistCm, calculators.FieldHipCm,
		},
		calculators.Fields(calculations.TypeBodyComposition),
	)
	assert.Empty(t, calculators.Fields("Other"))
}
