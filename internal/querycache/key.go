package querycache

import (
	"slices"
	"strconv"
	"strings"
)

// Namespace roots every key, so the whole calculations cache can be matched
// at once.
const Namespace = "calculations"

type Op string

const (
	OpAll    Op = "all"
	OpLatest Op = "latest"
	OpByDate Op = "byDate"
	OpByID   Op = "byId"
	OpByType Op = "byType"
)

// Key identifies one cached query. Build keys through the typed builders of
// the consuming package; IDs are kept sorted so their order never changes
// the cache identity.
type Key struct {
	Op       Op
	UserID   string
	Start    string
	End      string
	Type     string
	IDs      []string
	PageSize int
}

// Normalize sorts and dedupes IDs.
func (k Key) Normalize() Key {
	if len(k.IDs) == 0 {
		return k
	}
	ids := slices.Clone(k.IDs)
	slices.Sort(ids)
	k.IDs = slices.Compact(ids)
	return k
}

// Runnable is false for keys whose inputs are not there yet (no signed in
// user, empty id list, open date range...). Such queries stay disabled and
// never reach the network.
func (k Key) Runnable() bool {
	if k.UserID == "" {
		return false
	}
	switch k.Op {
	case OpAll, OpLatest:
		return true
	case OpByDate:
		return k.Start != "" && k.End != ""
	case OpByID:
		return len(k.IDs) > 0
	case OpByType:
		return k.Type != "" && k.PageSize > 0
	default:
		return false
	}
}

// String is the canonical form used as the cache key.
func (k Key) String() string {
	k = k.Normalize()
	parts := []string{Namespace, string(k.Op), strconv.Quote(k.UserID)}
	switch k.Op {
	case OpByDate:
		parts = append(parts, strconv.Quote(k.Start), strconv.Quote(k.End), strconv.Quote(k.Type))
	case OpByID:
		quoted := make([]string, 0, len(k.IDs))
		for _, id := range k.IDs {
			quoted = append(quoted, strconv.Quote(id))
		}
		parts = append(parts, strings.Join(quoted, ","))
	case OpByType:
		parts = append(parts, strconv.Quote(k.Type), strconv.Itoa(k.PageSize))
	}
	return strings.Join(parts, "::")
}

// HasAnyID reports whether the key's id set intersects ids.
func (k Key) HasAnyID(ids []string) bool {
	for _, id := range ids {
		if slices.Contains(k.IDs, id) {
			return true
		}
	}
	return false
}

// Predicate selects keys for invalidation.
type Predicate func(Key) bool

// All matches every key.
func All() Predicate {
	return func(Key) bool { return true }
}

// ForUser matches keys of userID, restricted to ops when any are given.
func ForUser(userID string, ops ...Op) Predicate {
	return func(k Key) bool {
		if k.UserID != userID {
			return false
		}
		return len(ops) == 0 || slices.Contains(ops, k.Op)
	}
}

func Or(preds ...Predicate) Predicate {
	return func(k Key) bool {
		for _, p := range preds {
			if p(k) {
				return true
			}
		}
		return false
	}
}

func And(preds ...Predicate) Predicate {
	return func(k Key) bool {
		for _, p := range preds {
			if !p(k) {
				return false
			}
		}
		return true
	}
}
