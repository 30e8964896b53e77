package history

import (
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/querycache"
)

func AllKey(userID string) querycache.Key {
	return querycache.Key{Op: querycache.OpAll, UserID: userID}
}

func LatestKey(userID string) querycache.Key {
	return querycache.Key{Op: querycache.OpLatest, UserID: userID}
}

// ByDateKey keys a date range read. Zero start or end leaves the range open,
// which keeps the query disabled. The type is optional.
func ByDateKey(userID string, start, end time.Time, calcType *calculations.Type) querycache.Key {
	key := querycache.Key{
		Op:     querycache.OpByDate,
		UserID: userID,
		Start:  formatDate(start),
		End:    formatDate(end),
	}
	if calcType != nil {
		key.Type = string(*calcType)
	}
	return key
}

// ByIDKey keys a read of a set of records; the order of ids does not matter.
func ByIDKey(userID string, ids []string) querycache.Key {
	return querycache.Key{Op: querycache.OpByID, UserID: userID, IDs: ids}
}

func ByTypeKey(userID string, calcType calculations.Type, pageSize int) querycache.Key {
	return querycache.Key{
		Op:       querycache.OpByType,
		UserID:   userID,
		Type:     string(calcType),
		PageSize: pageSize,
	}
}

// DeletePredicate matches everything a delete of ids by userID can make
// stale: every list of the user, and the id reads that include any of ids.
func DeletePredicate(userID string, ids []string) querycache.Predicate {
	return querycache.Or(
		querycache.ForUser(userID, querycache.OpAll, querycache.OpLatest, querycache.OpByDate, querycache.OpByType),
		querycache.And(
			querycache.ForUser(userID, querycache.OpByID),
			func(k querycache.Key) bool { return k.HasAnyID(ids) },
		),
	)
}

// CreatePredicate matches the reads a new record of calcType can show up
// in. Id reads never can, and paginated reads only for the same type.
func CreatePredicate(userID string, calcType calculations.Type) querycache.Predicate {
	return querycache.Or(
		querycache.ForUser(userID, querycache.OpAll, querycache.OpLatest, querycache.OpByDate),
		querycache.And(
			querycache.ForUser(userID, querycache.OpByType),
			func(k querycache.Key) bool { return k.Type == string(calcType) },
		),
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
