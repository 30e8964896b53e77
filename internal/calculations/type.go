package calculations

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeBMR             Type = "BMR"
	TypeTDEE            Type = "TDEE"
	TypeMacros          Type = "Macros"
	TypeBMI             Type = "BMI"
	TypeBodyComposition Type = "BodyComposition"
)

// AllTypes in the order history screens list them.
var AllTypes = []Type{
	TypeBMR,
	TypeTDEE,
	TypeMacros,
	TypeBMI,
	TypeBodyComposition,
}

var typeAliases = map[string]Type{
	"bmr":              TypeBMR,
	"tdee":             TypeTDEE,
	"macros":           TypeMacros,
	"bmi":              TypeBMI,
	"bodycomposition":  TypeBodyComposition,
	"body_composition": TypeBodyComposition,
	"body-composition": TypeBodyComposition,
	"bodycomp":         TypeBodyComposition,
	"lbm-fatmass":      TypeBodyComposition,
}

// ParseType maps the naming variants seen on the wire (MACROS, Macros,
// BODY_COMPOSITION, bodyComp, ...) to the canonical type. Anything else is
// rejected, there is no catch-all type.
func ParseType(s string) (Type, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown calculation type: %q", s)
}

// Valid reports whether t is one of the canonical types.
func (t Type) Valid() bool {
	switch t {
	case TypeBMR, TypeTDEE, TypeMacros, TypeBMI, TypeBodyComposition:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	return string(t)
}

// Label is the human readable name of the type.
func (t Type) Label() string {
	switch t {
	case TypeBMR:
		return "Basal Metabolic Rate"
	case TypeTDEE:
		return "Total Daily Energy Expenditure"
	case TypeMacros:
		return "Macronutrients"
	case TypeBMI:
		return "Body Mass Index"
	case TypeBodyComposition:
		return "Body Composition"
	default:
		return string(t)
	}
}
