package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/2beens/fitcalc/internal/calculations"
)

var ErrEmptyUser = errors.New("user id empty")

// Store keeps the calculation records of every user.
type Store interface {
	Add(ctx context.Context, calc calculations.Calculation) error
	// List returns the user's records, newest first.
	List(ctx context.Context, userID string) ([]calculations.Calculation, error)
	// Delete removes the user's records with the given ids and returns the
	// ids that were actually removed.
	Delete(ctx context.Context, userID string, ids []string) ([]string, error)
}

var _ Store = (*MemStore)(nil)

type MemStore struct {
	mutex   sync.RWMutex
	records map[string]map[string]calculations.Calculation
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: map[string]map[string]calculations.Calculation{},
	}
}

func (s *MemStore) Add(_ context.Context, calc calculations.Calculation) error {
	if calc.UserID == "" {
		return ErrEmptyUser
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	userRecords, ok := s.records[calc.UserID]
	if !ok {
		userRecords = map[string]calculations.Calculation{}
		s.records[calc.UserID] = userRecords
	}
	userRecords[calc.ID] = calc
	return nil
}

func (s *MemStore) List(_ context.Context, userID string) ([]calculations.Calculation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	calcs := make([]calculations.Calculation, 0, len(s.records[userID]))
	for _, c := range s.records[userID] {
		calcs = append(calcs, c)
	}
	calculations.SortNewestFirst(calcs)
	return calcs, nil
}

func (s *MemStore) Delete(_ context.Context, userID string, ids []string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	userRecords := s.records[userID]
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := userRecords[id]; ok {
			delete(userRecords, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// storedRecord is the wire shape of a record, rebuilt from stored columns.
type storedRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Result    json.RawMessage `json:"result_json"`
	Input     json.RawMessage `json:"input_json"`
	Goal      *string         `json:"goal"`
}

func (r storedRecord) decode() (calculations.Calculation, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return calculations.Calculation{}, err
	}
	return calculations.Decode(raw)
}
