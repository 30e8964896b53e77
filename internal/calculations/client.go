package calculations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/fitcalc/internal/gateway"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=client_mocks_test.go -package=calculations_test

type invoker interface {
	Invoke(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
}

// Client binds the calculation query and delete functions.
type Client struct {
	invoker        invoker
	metricsManager *metrics.Manager
}

func NewClient(invoker invoker, metricsManager *metrics.Manager) *Client {
	return &Client{
		invoker:        invoker,
		metricsManager: metricsManager,
	}
}

func (c *Client) All(ctx context.Context, userID string) (_ []Calculation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.all")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return c.list(ctx, EndpointAll, AllRequest{UserID: userID}, "")
}

func (c *Client) ByDate(ctx context.Context, req ByDateRequest) (_ []Calculation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.bydate")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(
		attribute.String("start", req.StartDate),
		attribute.String("end", req.EndDate),
	)

	var onlyType Type
	if req.Type != nil {
		onlyType = *req.Type
	}
	return c.list(ctx, EndpointByDate, req, onlyType)
}

func (c *Client) ByID(ctx context.Context, userID string, ids []string) (_ []Calculation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.byid")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("ids", len(ids)))

	return c.list(ctx, EndpointByID, ByIDRequest{UserID: userID, IDs: ids}, "")
}

func (c *Client) Latest(ctx context.Context, userID string) (_ Latest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.latest")
	defer tracing.EndSpanWithErrCheck(span, &err)

	raw, err := c.invoker.Invoke(ctx, EndpointLatest, LatestRequest{UserID: userID})
	if err != nil {
		return nil, err
	}

	latest := make(Latest, len(AllTypes))
	for _, t := range AllTypes {
		latest[t] = nil
	}
	if raw == nil {
		return latest, nil
	}

	var resp latestResponse
	if err := gateway.Decode(EndpointLatest, raw, &resp); err != nil {
		return nil, err
	}

	for key, recRaw := range resp.Data {
		if isNull(recRaw) {
			continue
		}
		t, err := ParseType(key)
		if err != nil {
			c.reportMalformed(EndpointLatest, &MalformedRecordError{Type: key, Reason: err.Error()})
			continue
		}
		calc, err := Decode(recRaw)
		if err != nil {
			c.reportMalformed(EndpointLatest, err)
			continue
		}
		if calc.Type != t {
			c.reportMalformed(EndpointLatest, &MalformedRecordError{
				ID:     calc.ID,
				Type:   string(calc.Type),
				Reason: fmt.Sprintf("listed under %s", key),
			})
			continue
		}
		latest[t] = &calc
	}

	return latest, nil
}

func (c *Client) ByType(ctx context.Context, req ByTypeRequest) (_ *Page, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.bytype")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(
		attribute.String("type", string(req.Type)),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	raw, err := c.invoker.Invoke(ctx, EndpointByType, req)
	if err != nil {
		return nil, err
	}

	page := &Page{Offset: req.Offset, Records: []Calculation{}}
	if raw == nil {
		return page, nil
	}

	var resp pageResponse
	if err := gateway.Decode(EndpointByType, raw, &resp); err != nil {
		return nil, err
	}
	page.Records = c.decodeRecords(EndpointByType, resp.Data, req.Type)
	page.NextOffset = resp.NextOffset
	if page.NextOffset != nil && *page.NextOffset <= req.Offset {
		// a cursor that does not move forward would page forever
		log.Warnf("calculations: %s returned non advancing nextOffset %d for offset %d", EndpointByType, *page.NextOffset, req.Offset)
		page.NextOffset = nil
	}

	return page, nil
}

func (c *Client) Delete(ctx context.Context, userID string, ids []string) (_ *DeleteResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calculations.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("ids", len(ids)))

	raw, err := c.invoker.Invoke(ctx, EndpointDelete, DeleteRequest{UserID: userID, IDs: ids})
	if err != nil {
		return nil, err
	}

	resp := &DeleteResponse{}
	if raw == nil {
		return resp, nil
	}
	if err := gateway.Decode(EndpointDelete, raw, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) list(ctx context.Context, endpoint string, req any, onlyType Type) ([]Calculation, error) {
	raw, err := c.invoker.Invoke(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []Calculation{}, nil
	}

	var resp listResponse
	if err := gateway.Decode(endpoint, raw, &resp); err != nil {
		return nil, err
	}
	return c.decodeRecords(endpoint, resp.Data, onlyType), nil
}

func (c *Client) decodeRecords(endpoint string, raws []json.RawMessage, onlyType Type) []Calculation {
	calcs, malformed := DecodeList(raws)
	for _, err := range malformed {
		c.reportMalformed(endpoint, err)
	}

	if onlyType != "" {
		filtered := calcs[:0]
		for _, calc := range calcs {
			if calc.Type != onlyType {
				c.reportMalformed(endpoint, &MalformedRecordError{
					ID:     calc.ID,
					Type:   string(calc.Type),
					Reason: fmt.Sprintf("expected type %s", onlyType),
				})
				continue
			}
			filtered = append(filtered, calc)
		}
		calcs = filtered
	}

	SortNewestFirst(calcs)
	return calcs
}

func (c *Client) reportMalformed(endpoint string, err error) {
	log.Warnf("calculations: %s: dropping record: %s", endpoint, err)
	if c.metricsManager == nil {
		return
	}
	typeLabel := "unknown"
	var mErr *MalformedRecordError
	if errors.As(err, &mErr) && mErr.Type != "" {
		typeLabel = mErr.Type
	}
	c.metricsManager.CounterMalformedRecords.WithLabelValues(typeLabel).Inc()
}
