//go:build integration_test

package test

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"
	"github.com/2beens/fitcalc/internal/devserver"
	"github.com/2beens/fitcalc/internal/history"
	"github.com/2beens/fitcalc/internal/querycache"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) calculate(userID string, req calculators.Request) calculations.Result {
	res, err := s.calculators.Calculate(context.Background(), userID, req)
	s.Require().NoError(err)
	s.mutator.Calculated(userID, req.CalculationType())
	return res
}

func (s *IntegrationTestSuite) TestCalculationsPersistInPostgres() {
	ctx := context.Background()
	userID := gofakeit.UUID()

	height, age := 180.0, 30
	res := s.calculate(userID, calculators.BMRRequest{
		WeightKg: 80,
		HeightCm: &height,
		Age:      &age,
		Gender:   calculators.GenderMale,
		Equation: calculators.EquationMifflin,
	})
	s.Equal(1780.0, res.(calculations.BMRResult).BMR)

	s.calculate(userID, calculators.TDEERequest{BMR: 1780, ActivityLevel: calculators.ActivityModerate})

	all := s.history.All(ctx, userID)
	s.Require().Equal(querycache.StatusSuccess, all.Status)
	s.Require().Len(all.Data, 2)
	s.Equal(calculations.TypeTDEE, all.Data[0].Type)
	s.Equal(calculations.TypeBMR, all.Data[1].Type)
	s.Equal(userID, all.Data[1].UserID)
	bmrInput, ok := all.Data[1].Input.(calculations.BMRInput)
	s.Require().True(ok)
	s.Require().NotNil(bmrInput.WeightKg)
	s.Equal(80.0, *bmrInput.WeightKg)
	s.Equal("mifflin", bmrInput.Equation)

	latest := s.history.Latest(ctx, userID)
	s.Require().Equal(querycache.StatusSuccess, latest.Status)
	s.Require().NotNil(latest.Data.Get(calculations.TypeTDEE))
	s.Equal(2759.0, latest.Data.Get(calculations.TypeTDEE).Result.(calculations.TDEEResult).TDEE)
	s.Nil(latest.Data.Get(calculations.TypeBMI))

	tdee := calculations.TypeTDEE
	now := time.Now()
	byDate := s.history.ByDate(ctx, userID, now.Add(-time.Hour), now.Add(time.Hour), &tdee)
	s.Require().Equal(querycache.StatusSuccess, byDate.Status)
	s.Len(byDate.Data, 1)

	byID := s.history.ByID(ctx, userID, []string{all.Data[1].ID, gofakeit.UUID()})
	s.Require().Equal(querycache.StatusSuccess, byID.Status)
	s.Require().Len(byID.Data, 1)
	s.Equal(all.Data[1].ID, byID.Data[0].ID)
}

func (s *IntegrationTestSuite) TestByTypePaginationAndDelete() {
	ctx := context.Background()
	userID := gofakeit.UUID()

	for i := 0; i < 7; i++ {
		s.calculate(userID, calculators.BMIRequest{WeightKg: 60 + float64(i), HeightCm: 175})
	}

	paged := s.history.ByType(ctx, userID, calculations.TypeBMI)
	s.Require().Equal(querycache.StatusSuccess, paged.Status)
	s.Len(history.Records(paged.Data), 5)
	s.True(paged.Data.HasNextPage())

	paged = s.history.NextByType(ctx, userID, calculations.TypeBMI)
	s.Require().Equal(querycache.StatusSuccess, paged.Status)
	records := history.Records(paged.Data)
	s.Len(records, 7)
	s.False(paged.Data.HasNextPage())

	var stored int
	s.Require().NoError(s.DB.QueryRowContext(ctx, `SELECT count(*) FROM calculation WHERE user_id = $1`, userID).Scan(&stored))
	s.Equal(7, stored)

	res, err := s.mutator.Delete(ctx, userID, []string{records[0].ID, records[1].ID})
	s.Require().NoError(err)
	s.ElementsMatch([]string{records[0].ID, records[1].ID}, res.Deleted)
	s.Positive(res.Invalidated)

	s.Require().NoError(s.DB.QueryRowContext(ctx, `SELECT count(*) FROM calculation WHERE user_id = $1`, userID).Scan(&stored))
	s.Equal(5, stored)

	paged = s.history.ByType(ctx, userID, calculations.TypeBMI)
	s.Require().Equal(querycache.StatusSuccess, paged.Status)
	s.Len(history.Records(paged.Data), 5)
	s.False(paged.Data.HasNextPage())
}

func (s *IntegrationTestSuite) TestRedisStore() {
	ctx := context.Background()
	store := devserver.NewRedisStore(s.redisClient)
	userID := gofakeit.UUID()

	weight, height := 80.0, 180.0
	c := calculations.Calculation{
		ID:        gofakeit.UUID(),
		UserID:    userID,
		Type:      calculations.TypeBMI,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Result:    calculations.BMIResult{BMI: 24.7, Category: "Normal"},
		Input:     calculations.BMIInput{WeightKg: &weight, HeightCm: &height},
	}
	s.Require().NoError(store.Add(ctx, c))

	listed, err := store.List(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(c.ID, listed[0].ID)
	s.Equal(c.Result, listed[0].Result)

	deleted, err := store.Delete(ctx, userID, []string{c.ID, "missing"})
	s.Require().NoError(err)
	s.Equal([]string{c.ID}, deleted)
}

func (s *IntegrationTestSuite) TestUnauthorized() {
	req, err := http.NewRequest(http.MethodPost, serverEndpoint+"/functions/v1/calculations-all", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer wrong-key")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
