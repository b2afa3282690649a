package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrumentPropagatesResult(t *testing.T) {
	err := Instrument(context.Background(), "test.op", true, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	sentinel := errors.New("boom")
	err = Instrument(context.Background(), "test.op.fail", false, func(ctx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestRecordIncrementIsIdempotentToRegister(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordIncrement("test_counter", 1, map[string]string{"kind": "a"})
		RecordIncrement("test_counter", 2, map[string]string{"kind": "b"})
	})
}

func TestRecordHistogramAndGauge(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHistogram("test_histogram", 0.5, "seconds")
		RecordGauge("test_gauge", 3, "items")
	})
}

func TestTraceExceptionNilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		TraceException(context.Background(), nil)
	})
}
