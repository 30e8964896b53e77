package calculators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/gateway"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=client_mocks_test.go -package=calculators_test

type invoker interface {
	Invoke(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
}

// Client binds the calculator functions. Responses are checked strictly: a
// missing or mistyped field is an invalid response, never a zero value.
type Client struct {
	invoker invoker
}

func NewClient(invoker invoker) *Client {
	return &Client{invoker: invoker}
}

// Calculate sends req on behalf of userID to the matching calculator.
func (c *Client) Calculate(ctx context.Context, userID string, req Request) (_ calculations.Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculators.calculate")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("type", string(req.CalculationType())))

	var res calculations.Result
	switch r := req.withUserID(userID).(type) {
	case BMRRequest:
		res, err = c.BMR(ctx, r)
	case TDEERequest:
		res, err = c.TDEE(ctx, r)
	case MacrosRequest:
		res, err = c.Macros(ctx, r)
	case BMIRequest:
		res, err = c.BMI(ctx, r)
	case BodyCompRequest:
		res, err = c.BodyComp(ctx, r)
	default:
		err = fmt.Errorf("unsupported calculator request %T", req)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) BMR(ctx context.Context, req BMRRequest) (BMRResponse, error) {
	var wire struct {
		BMR      *float64  `json:"bmr"`
		Equation *Equation `json:"equation"`
	}
	if err := c.call(ctx, EndpointBMR, req, &wire); err != nil {
		return BMRResponse{}, err
	}
	if wire.BMR == nil {
		return BMRResponse{}, missingField(EndpointBMR, "bmr")
	}
	if wire.Equation == nil || !slices.Contains(Equations, *wire.Equation) {
		return BMRResponse{}, missingField(EndpointBMR, "equation")
	}
	return BMRResponse{BMR: *wire.BMR, Equation: string(*wire.Equation)}, nil
}

func (c *Client) TDEE(ctx context.Context, req TDEERequest) (TDEEResponse, error) {
	var wire struct {
		TDEE *float64 `json:"tdee"`
	}
	if err := c.call(ctx, EndpointTDEE, req, &wire); err != nil {
		return TDEEResponse{}, err
	}
	if wire.TDEE == nil {
		return TDEEResponse{}, missingField(EndpointTDEE, "tdee")
	}
	return TDEEResponse{TDEE: *wire.TDEE}, nil
}

func (c *Client) Macros(ctx context.Context, req MacrosRequest) (MacrosResponse, error) {
	var wire struct {
		Calories *float64 `json:"calories"`
		Protein  *float64 `json:"protein"`
		Carbs    *float64 `json:"carbs"`
		Fat      *float64 `json:"fat"`
	}
	if err := c.call(ctx, EndpointMacros, req, &wire); err != nil {
		return MacrosResponse{}, err
	}
	for name, v := range map[string]*float64{
		"calories": wire.Calories,
		"protein":  wire.Protein,
		"carbs":    wire.Carbs,
		"fat":      wire.Fat,
	} {
		if v == nil {
			return MacrosResponse{}, missingField(EndpointMacros, name)
		}
	}
	return MacrosResponse{
		Calories: *wire.Calories,
		Protein:  *wire.Protein,
		Carbs:    *wire.Carbs,
		Fat:      *wire.Fat,
	}, nil
}

func (c *Client) BMI(ctx context.Context, req BMIRequest) (BMIResponse, error) {
	var wire struct {
		BMI      *float64 `json:"bmi"`
		Category *string  `json:"category"`
	}
	if err := c.call(ctx, EndpointBMI, req, &wire); err != nil {
		return BMIResponse{}, err
	}
	if wire.BMI == nil {
		return BMIResponse{}, missingField(EndpointBMI, "bmi")
	}
	if wire.Category == nil {
		return BMIResponse{}, missingField(EndpointBMI, "category")
	}
	return BMIResponse{BMI: *wire.BMI, Category: *wire.Category}, nil
}

func (c *Client) BodyComp(ctx context.Context, req BodyCompRequest) (BodyCompResponse, error) {
	var wire struct {
		BodyFatPercent *float64 `json:"bodyFatPercent"`
		LeanBodyMassKg *float64 `json:"leanBodyMassKg"`
		FatMassKg      *float64 `json:"fatMassKg"`
	}
	if err := c.call(ctx, EndpointBodyComp, req, &wire); err != nil {
		return BodyCompResponse{}, err
	}
	switch {
	case wire.BodyFatPercent == nil:
		return BodyCompResponse{}, missingField(EndpointBodyComp, "bodyFatPercent")
	case wire.LeanBodyMassKg == nil:
		return BodyCompResponse{}, missingField(EndpointBodyComp, "leanBodyMassKg")
	case wire.FatMassKg == nil:
		return BodyCompResponse{}, missingField(EndpointBodyComp, "fatMassKg")
	}
	return BodyCompResponse{
		BodyFatPercent: *wire.BodyFatPercent,
		LeanBodyMassKg: *wire.LeanBodyMassKg,
		FatMassKg:      *wire.FatMassKg,
	}, nil
}

func (c *Client) call(ctx context.Context, endpoint string, req any, out any) error {
	raw, err := c.invoker.Invoke(ctx, endpoint, req)
	if err != nil {
		return err
	}
	return gateway.Decode(endpoint, raw, out)
}

func missingField(endpoint, field string) error {
	return &gateway.InvalidResponseError{
		Endpoint: endpoint,
		Err:      errors.New("missing or invalid field " + field),
	}
}
