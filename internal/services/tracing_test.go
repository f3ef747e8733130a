package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpans_OnlyInternalErrorsMarkFailure(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "alice", CreateInput{To: "bob"})
	require.ErrorIs(t, err, ErrInvalidContent)

	f.store.listErr = errors.New("connection reset")
	_, err = f.svc.List(ctx, "alice")
	require.ErrorIs(t, err, ErrInternal)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "InvitationService.Create", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "InvitationService.List", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NotEmpty(t, spans[1].Events(), "internal error recorded on the span")
}
