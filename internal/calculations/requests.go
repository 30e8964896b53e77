package calculations

import "encoding/json"

const (
	EndpointAll    = "calculations-all"
	EndpointLatest = "calculations-latest"
	EndpointByDate = "calculations-by-date"
	EndpointByID   = "calculations-by-id"
	EndpointByType = "calculations-by-type"
	EndpointDelete = "calculations-delete"
)

type AllRequest struct {
	UserID string `json:"userId"`
}

type LatestRequest struct {
	UserID string `json:"userId"`
}

// ByDateRequest bounds are ISO-8601 instants, both inclusive.
type ByDateRequest struct {
	UserID    string `json:"userId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Type      *Type  `json:"type,omitempty"`
}

type ByIDRequest struct {
	UserID string   `json:"userId"`
	IDs    []string `json:"ids"`
}

type ByTypeRequest struct {
	UserID string `json:"userId"`
	Type   Type   `json:"type"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type DeleteRequest struct {
	UserID string   `json:"userId"`
	IDs    []string `json:"ids"`
}

type listResponse struct {
	Data []json.RawMessage `json:"data"`
}

type latestResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}

type pageResponse struct {
	Data       []json.RawMessage `json:"data"`
	NextOffset *int              `json:"nextOffset"`
}

type DeleteResponse struct {
	Deleted []string `json:"deleted"`
}

// Latest holds the most recent calculation per type; a type without any
// calculation maps to nil. All canonical types are always present as keys.
type Latest map[Type]*Calculation

func (l Latest) Get(t Type) *Calculation {
	return l[t]
}

// Page is one slice of a by-type listing. NextOffset is nil once the
// listing is exhausted.
type Page struct {
	Records    []Calculation
	Offset     int
	NextOffset *int
}
