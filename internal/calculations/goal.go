package calculations

import (
	"math"
	"strings"
	"unicode"
)

type GoalMetric string

const (
	GoalMetricWeight  GoalMetric = "weight"
	GoalMetricBodyFat GoalMetric = "bodyFat"
	GoalMetricLBM     GoalMetric = "lbm"
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// ActiveGoal is the user's current body goal.
type ActiveGoal struct {
	GoalType      string   `json:"goal_type"`
	TargetWeight  *float64 `json:"target_weight"`
	TargetBodyFat *float64 `json:"target_body_fat"`
	TargetLBM     *float64 `json:"target_lbm"`
}

// GoalReadings are the current (and optionally starting) body readings.
type GoalReadings struct {
	CurrentWeightKg       *float64
	CurrentBodyFatPercent *float64
	CurrentLeanBodyMassKg *float64

	StartWeightKg       *float64
	StartBodyFatPercent *float64
	StartLeanBodyMassKg *float64
}

type GoalProgress struct {
	Title     string
	Metric    GoalMetric
	Unit      string
	Start     *float64
	Current   *float64
	Target    float64
	Direction Direction
	Percent   int
}

// TrackGoal picks the tracked metric of the goal and computes progress
// towards it. Returns nil if the goal has no target at all.
func TrackGoal(goal ActiveGoal, readings GoalReadings) *GoalProgress {
	metric, unit, target, ok := deriveMetric(goal)
	if !ok {
		return nil
	}

	progress := &GoalProgress{
		Title:     GoalTypeLabel(goal.GoalType) + " - " + metricLabel(metric),
		Metric:    metric,
		Unit:      unit,
		Target:    target,
		Direction: DirectionFor(metric, goal.GoalType),
	}
	switch metric {
	case GoalMetricWeight:
		progress.Start, progress.Current = readings.StartWeightKg, readings.CurrentWeightKg
	case GoalMetricBodyFat:
		progress.Start, progress.Current = readings.StartBodyFatPercent, readings.CurrentBodyFatPercent
	case GoalMetricLBM:
		progress.Start, progress.Current = readings.StartLeanBodyMassKg, readings.CurrentLeanBodyMassKg
	}
	progress.Percent = ComputePercent(progress.Start, progress.Current, progress.Target, progress.Direction)

	return progress
}

// ReadingsFromLatest takes current readings from the newest body
// composition and the newest weight entered in any calculator.
func ReadingsFromLatest(latest Latest) GoalReadings {
	var readings GoalReadings
	if bc := latest.Get(TypeBodyComposition); bc != nil {
		if res, ok := bc.Result.(BodyCompositionResult); ok {
			bf, lbm := res.BodyFatPercent, res.LeanBodyMassKg
			readings.CurrentBodyFatPercent = &bf
			readings.CurrentLeanBodyMassKg = &lbm
		}
	}

	var newest *Calculation
	for _, t := range AllTypes {
		c := latest.Get(t)
		if c == nil || inputWeight(c.Input) == nil {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	if newest != nil {
		readings.CurrentWeightKg = inputWeight(newest.Input)
	}

	return readings
}

func inputWeight(in Input) *float64 {
	switch v := in.(type) {
	case BMRInput:
		return v.WeightKg
	case MacrosInput:
		return v.WeightKg
	case BMIInput:
		return v.WeightKg
	case BodyCompositionInput:
		return v.WeightKg
	default:
		return nil
	}
}

// ComputePercent returns progress in 0..100. With a start reading it is the
// travelled share of start..target, without one it is the proximity of the
// current reading to the target. No current reading is 0.
func ComputePercent(start, current *float64, target float64, direction Direction) int {
	if current == nil || math.IsNaN(*current) {
		return 0
	}

	if start != nil && !math.IsNaN(*start) && *start != target {
		num, den := *current-*start, target-*start
		if direction == DirectionDecrease {
			num, den = *start-*current, *start-target
		}
		return clampPercent(math.Round(num / den * 100))
	}

	diff := math.Abs(target - *current)
	scale := math.Max(math.Abs(target), 1)
	return clampPercent(math.Round(100 - diff/scale*100))
}

func clampPercent(v float64) int {
	return int(math.Max(0, math.Min(100, v)))
}

// deriveMetric picks by available target, weight first, then body fat, then lbm.
func deriveMetric(g ActiveGoal) (GoalMetric, string, float64, bool) {
	switch {
	case g.TargetWeight != nil:
		return GoalMetricWeight, "kg", *g.TargetWeight, true
	case g.TargetBodyFat != nil:
		return GoalMetricBodyFat, "%", *g.TargetBodyFat, true
	case g.TargetLBM != nil:
		return GoalMetricLBM, "kg", *g.TargetLBM, true
	default:
		return "", "", 0, false
	}
}

func DirectionFor(metric GoalMetric, goalType string) Direction {
	switch metric {
	case GoalMetricBodyFat:
		return DirectionDecrease
	case GoalMetricLBM:
		return DirectionIncrease
	default:
		if goalType == "fatLoss" {
			return DirectionDecrease
		}
		return DirectionIncrease
	}
}

func GoalTypeLabel(goalType string) string {
	switch goalType {
	case "muscleGain":
		return "Muscle Gain"
	case "fatLoss":
		return "Fat Loss"
	case "recomp":
		return "Recomposition"
	case "":
		return "Goal"
	}

	// camelCase -> "Camel Case"
	var sb strings.Builder
	for i, r := range goalType {
		if i > 0 && unicode.IsUpper(r) {
			sb.WriteRune(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func metricLabel(m GoalMetric) string {
	switch m {
	case GoalMetricWeight:
		return "Weight"
	case GoalMetricBodyFat:
		return "Body Fat"
	default:
		return "Lean Mass"
	}
}
