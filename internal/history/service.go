package history

import (
	"context"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/querycache"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=history_test

type calculationsClient interface {
	All(ctx context.Context, userID string) ([]calculations.Calculation, error)
	Latest(ctx context.Context, userID string) (calculations.Latest, error)
	ByDate(ctx context.Context, req calculations.ByDateRequest) ([]calculations.Calculation, error)
	ByID(ctx context.Context, userID string, ids []string) ([]calculations.Calculation, error)
	ByType(ctx context.Context, req calculations.ByTypeRequest) (*calculations.Page, error)
	Delete(ctx context.Context, userID string, ids []string) (*calculations.DeleteResponse, error)
}

type (
	ListResult   = querycache.Result[[]calculations.Calculation]
	LatestResult = querycache.Result[calculations.Latest]
	PagedResult  = querycache.Result[querycache.Pages[*calculations.Page]]
)

// Service serves the history reads of the signed in user through the query
// cache.
type Service struct {
	client      calculationsClient
	coordinator *querycache.Coordinator
	pageSize    int
}

func NewService(client calculationsClient, coordinator *querycache.Coordinator, pageSize int) *Service {
	return &Service{
		client:      client,
		coordinator: coordinator,
		pageSize:    pageSize,
	}
}

func (s *Service) All(ctx context.Context, userID string) ListResult {
	return querycache.Query(ctx, s.coordinator, AllKey(userID), func(ctx context.Context) ([]calculations.Calculation, error) {
		return s.client.All(ctx, userID)
	})
}

func (s *Service) Latest(ctx context.Context, userID string) LatestResult {
	return querycache.Query(ctx, s.coordinator, LatestKey(userID), func(ctx context.Context) (calculations.Latest, error) {
		return s.client.Latest(ctx, userID)
	})
}

func (s *Service) ByDate(ctx context.Context, userID string, start, end time.Time, calcType *calculations.Type) ListResult {
	key := ByDateKey(userID, start, end, calcType)
	return querycache.Query(ctx, s.coordinator, key, func(ctx context.Context) ([]calculations.Calculation, error) {
		return s.client.ByDate(ctx, calculations.ByDateRequest{
			UserID:    userID,
			StartDate: key.Start,
			EndDate:   key.End,
			Type:      calcType,
		})
	})
}

// ByID returns the records with the given ids, newest first.
func (s *Service) ByID(ctx context.Context, userID string, ids []string) ListResult {
	key := ByIDKey(userID, ids).Normalize()
	return querycache.Query(ctx, s.coordinator, key, func(ctx context.Context) ([]calculations.Calculation, error) {
		return s.client.ByID(ctx, userID, key.IDs)
	})
}

// ByType returns the loaded pages of calcType records, loading the first one
// if needed.
func (s *Service) ByType(ctx context.Context, userID string, calcType calculations.Type) PagedResult {
	return querycache.QueryPages(ctx, s.coordinator, ByTypeKey(userID, calcType, s.pageSize), 0, s.pageFetcher(userID, calcType))
}

// NextByType loads the page after the last loaded one.
func (s *Service) NextByType(ctx context.Context, userID string, calcType calculations.Type) PagedResult {
	return querycache.FetchNextPage(ctx, s.coordinator, ByTypeKey(userID, calcType, s.pageSize), 0, s.pageFetcher(userID, calcType))
}

func (s *Service) pageFetcher(userID string, calcType calculations.Type) querycache.PageFetcher[*calculations.Page] {
	return func(ctx context.Context, offset int) (*calculations.Page, *int, error) {
		page, err := s.client.ByType(ctx, calculations.ByTypeRequest{
			UserID: userID,
			Type:   calcType,
			Limit:  s.pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, nil, err
		}
		return page, page.NextOffset, nil
	}
}

// Records flattens loaded pages in the order they were fetched.
func Records(pages querycache.Pages[*calculations.Page]) []calculations.Calculation {
	var records []calculations.Calculation
	for _, p := range pages.Pages {
		if p != nil {
			records = append(records, p.Records...)
		}
	}
	return records
}
