package devserver

import (
	"slices"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// The filters expect calcs ordered newest first and keep that order.

func filterByDate(calcs []calculations.Calculation, start, end time.Time, calcType *calculations.Type) []calculations.Calculation {
	filtered := make([]calculations.Calculation, 0, len(calcs))
	for _, c := range calcs {
		if !start.IsZero() && c.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && c.CreatedAt.After(end) {
			continue
		}
		if calcType != nil && c.Type != *calcType {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func filterByIDs(calcs []calculations.Calculation, ids []string) []calculations.Calculation {
	filtered := make([]calculations.Calculation, 0, len(ids))
	for _, c := range calcs {
		if slices.Contains(ids, c.ID) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// latestPerType maps every canonical type to its newest record, nil if the
// user has none of that type.
func latestPerType(calcs []calculations.Calculation) calculations.Latest {
	latest := make(calculations.Latest, len(calculations.AllTypes))
	for _, t := range calculations.AllTypes {
		latest[t] = nil
	}
	for i := range calcs {
		if latest[calcs[i].Type] == nil {
			latest[calcs[i].Type] = &calcs[i]
		}
	}
	return latest
}

// pageByType returns the records of calcType in [offset, offset+limit) and
// the offset of the next page, nil once there is none.
func pageByType(calcs []calculations.Calculation, calcType calculations.Type, limit, offset int) ([]calculations.Calculation, *int) {
	ofType := make([]calculations.Calculation, 0, len(calcs))
	for _, c := range calcs {
		if c.Type == calcType {
			ofType = append(ofType, c)
		}
	}

	if offset >= len(ofType) {
		return []calculations.Calculation{}, nil
	}
	end := min(offset+limit, len(ofType))
	page := ofType[offset:end]
	if end == len(ofType) {
		return page, nil
	}
	return page, &end
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageLimit
	case limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return limit
	}
}
