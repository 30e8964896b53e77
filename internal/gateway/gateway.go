package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const functionsPath = "/functions/v1/"

// Invoker calls a named remote function with a JSON body and returns the
// raw JSON answer (nil when the remote answered with an empty body).
type Invoker interface {
	Invoke(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
}

var _ Invoker = (*Gateway)(nil)

type Params struct {
	BaseURL    string
	Credential string
	// HTTPClient defaults to a client with an otel traced transport
	HTTPClient *http.Client
}

type Gateway struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

func New(params Params) (*Gateway, error) {
	if strings.TrimSpace(params.BaseURL) == "" {
		return nil, &ConfigurationError{Missing: "functions base URL"}
	}
	if strings.TrimSpace(params.Credential) == "" {
		return nil, &ConfigurationError{Missing: "functions credential"}
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Gateway{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		credential: params.Credential,
		httpClient: httpClient,
	}, nil
}

func (g *Gateway) FunctionURL(endpoint string) string {
	return g.baseURL + functionsPath + endpoint
}

// Invoke POSTs body as JSON to the named function. One call is exactly one
// HTTP request: no retries, no caching.
func (g *Gateway) Invoke(ctx context.Context, endpoint string, body any) (_ json.RawMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gateway.invoke")
	span.SetAttributes(attribute.String("endpoint", endpoint))
	defer func() {
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "ok")
		case IsCanceled(err):
			span.SetAttributes(attribute.Bool("canceled", true))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if body == nil {
		body = struct{}{}
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.FunctionURL(endpoint), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("new %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.credential)
	req.Header.Set("apikey", g.credential)

	log.Tracef("gateway: calling %s", endpoint)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", endpoint, ErrCanceled, ctxErr)
		}
		return nil, &RemoteCallError{
			Endpoint: endpoint,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", endpoint, ErrCanceled, ctxErr)
		}
		return nil, &RemoteCallError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("read body: %s", err),
		}
	}
	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))

	var raw json.RawMessage
	if len(respBytes) > 0 {
		if !json.Valid(respBytes) {
			return nil, &InvalidResponseError{Endpoint: endpoint, Raw: string(respBytes)}
		}
		raw = respBytes
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		callErr := &RemoteCallError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    remoteErrorMessage(raw, resp.StatusCode),
		}
		log.Debugf("gateway: %s", callErr)
		return nil, callErr
	}

	return raw, nil
}

func remoteErrorMessage(raw json.RawMessage, statusCode int) string {
	fallback := fmt.Sprintf("HTTP %d", statusCode)
	if raw == nil {
		return fallback
	}

	var errBody map[string]json.RawMessage
	if err := json.Unmarshal(raw, &errBody); err != nil {
		return fallback
	}
	errField, ok := errBody["error"]
	if !ok {
		return fallback
	}

	var msg string
	if err := json.Unmarshal(errField, &msg); err == nil {
		return msg
	}
	return string(errField)
}

// Decode unmarshals a raw function answer into out. Shape mismatches are
// reported as InvalidResponseError, same as unparsable bodies.
func Decode(endpoint string, raw json.RawMessage, out any) error {
	if raw == nil {
		return &InvalidResponseError{Endpoint: endpoint, Raw: "null", Err: fmt.Errorf("empty response")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &InvalidResponseError{Endpoint: endpoint, Raw: string(raw), Err: err}
	}
	return nil
}
