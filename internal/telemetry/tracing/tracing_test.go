package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHoneycombSetup_Disabled(t *testing.T) {
	shutdown, err := HoneycombSetup(false, "fitcalc-test", nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestEndSpanWithErrCheck(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	run := func(fail bool) (err error) {
		_, span := tracer.Start(context.Background(), "op")
		defer EndSpanWithErrCheck(span, &err)
		if fail {
			return errors.New("remote down")
		}
		return nil
	}

	require.NoError(t, run(false))
	require.Error(t, run(true))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "remote down", spans[1].Status().Description)
}
